package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-assistant/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.SocialConfig{
		BaseURL:     baseURL,
		AccessToken: "token-123",
	})
}

func TestSearchHashtag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/timelines/tag/freemobile", r.URL.Path)
		assert.Equal(t, "40", r.URL.Query().Get("limit"))
		assert.Equal(t, "110123", r.URL.Query().Get("since_id"))
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":         "110456",
				"content":    "<p>Votre r&eacute;seau est en panne.<br>Toujours rien.</p>",
				"url":        "https://mastodon.example/@jean/110456",
				"created_at": "2024-03-01T10:00:00Z",
				"account":    map[string]any{"acct": "jean@mastodon.example"},
				"tags":       []map[string]any{{"name": "FreeMobile"}},
			},
		})
	}))
	defer srv.Close()

	posts, err := newTestClient(srv.URL).SearchHashtag(context.Background(), "freemobile", "110123")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	post := posts[0]
	assert.Equal(t, "110456", post.ID)
	assert.Equal(t, "jean@mastodon.example", post.Author)
	assert.Equal(t, "Votre réseau est en panne.\nToujours rien.", post.Content)
	assert.Equal(t, "https://mastodon.example/@jean/110456", post.URL)
	assert.Equal(t, []string{"freemobile"}, post.Hashtags)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), post.PostedAt)
}

func TestSearchHashtagOmitsSinceIDOnFirstPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["since_id"]
		assert.False(t, present)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	posts, err := newTestClient(srv.URL).SearchHashtag(context.Background(), "freemobile", "")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSearchHashtagPlatformFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SearchHashtag(context.Background(), "freemobile", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/statuses", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "@jean Bonjour, nous avons bien vu votre message.", r.PostForm.Get("status"))
		assert.Equal(t, "110456", r.PostForm.Get("in_reply_to_id"))
		assert.Equal(t, "public", r.PostForm.Get("visibility"))

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Reply(context.Background(), "110456", "@jean Bonjour, nous avons bien vu votre message.")
	require.NoError(t, err)
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "pas de balises", "pas de balises"},
		{"paragraphs", "<p>un</p><p>deux</p>", "un\ndeux"},
		{"breaks", "ligne un<br>ligne deux<br />ligne trois", "ligne un\nligne deux\nligne trois"},
		{"links", `<a href="https://example.com">#freemobile</a>`, "#freemobile"},
		{"entities", "d&eacute;j&agrave; &amp; encore", "déjà & encore"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkup(tt.in))
		})
	}
}
