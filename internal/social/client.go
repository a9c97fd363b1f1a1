package social

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/support-assistant/internal/config"
	"github.com/spec-kit/support-assistant/internal/domain"
)

// status mirrors the fields read from the platform's status JSON.
type status struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Account   struct {
		Acct string `json:"acct"`
	} `json:"account"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// Client talks to a Mastodon-compatible instance.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewClient builds a client for the configured instance.
func NewClient(cfg config.SocialConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchHashtag returns public statuses tagged with tag, newer than
// sinceID. Pass an empty sinceID on the first poll.
func (c *Client) SearchHashtag(ctx context.Context, tag, sinceID string) ([]domain.SocialPost, error) {
	endpoint := fmt.Sprintf("%s/api/v1/timelines/tag/%s?limit=40", c.baseURL, url.PathEscape(tag))
	if sinceID != "" {
		endpoint += "&since_id=" + url.QueryEscape(sinceID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, platformError(resp)
	}

	var statuses []status
	if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
		return nil, err
	}

	posts := make([]domain.SocialPost, 0, len(statuses))
	for _, s := range statuses {
		tags := make([]string, 0, len(s.Tags))
		for _, t := range s.Tags {
			tags = append(tags, strings.ToLower(t.Name))
		}
		posts = append(posts, domain.SocialPost{
			ID:       s.ID,
			Author:   s.Account.Acct,
			Content:  stripMarkup(s.Content),
			URL:      s.URL,
			Hashtags: tags,
			PostedAt: s.CreatedAt,
		})
	}
	return posts, nil
}

// Reply publishes a public reply to postID.
func (c *Client) Reply(ctx context.Context, postID, text string) error {
	form := url.Values{}
	form.Set("status", text)
	form.Set("in_reply_to_id", postID)
	form.Set("visibility", "public")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/statuses", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return platformError(resp)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func platformError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("platform returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// stripMarkup reduces status HTML to readable text. Paragraph closes and
// line breaks become newlines, every other tag is dropped, entities are
// decoded.
func stripMarkup(s string) string {
	var text strings.Builder
	text.Grow(len(s))
	var tag strings.Builder
	inTag := false

	for _, r := range s {
		switch {
		case inTag:
			if r != '>' {
				tag.WriteRune(r)
				continue
			}
			name := strings.ToLower(strings.TrimSpace(tag.String()))
			if name == "/p" || strings.HasPrefix(name, "br") {
				text.WriteByte('\n')
			}
			tag.Reset()
			inTag = false
		case r == '<':
			inTag = true
		default:
			text.WriteRune(r)
		}
	}
	return strings.TrimSpace(html.UnescapeString(text.String()))
}
