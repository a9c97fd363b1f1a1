package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spec-kit/support-assistant/internal/config"
	"github.com/spec-kit/support-assistant/internal/escalation"
	"github.com/spec-kit/support-assistant/internal/observability"
)

// Passage is one retrieved knowledge base extract.
type Passage struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Generation is the engine's drafted answer with its own confidence.
type Generation struct {
	Text       string  `json:"response"`
	Confidence float64 `json:"confidence"`
}

// Client talks to the assistant engine over HTTP. One instance is safe
// for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	topK    int
}

// NewClient builds a client for the configured engine.
func NewClient(cfg config.EngineConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout()},
		topK:    cfg.RetrieveTopK,
	}
}

// Classify returns the engine's intent and sentiment estimate for text.
func (c *Client) Classify(ctx context.Context, text string) (escalation.RawSignal, error) {
	var resp struct {
		Intent     string   `json:"intent"`
		Confidence float64  `json:"confidence"`
		Sentiment  float64  `json:"sentiment"`
		Keywords   []string `json:"keywords"`
	}
	if err := c.post(ctx, "/api/classify", map[string]string{"text": text}, &resp); err != nil {
		observability.EngineCalls.WithLabelValues("classify", "error").Inc()
		return escalation.RawSignal{}, fmt.Errorf("classify: %w", err)
	}
	observability.EngineCalls.WithLabelValues("classify", "ok").Inc()
	return escalation.RawSignal{
		IntentLabel: resp.Intent,
		Confidence:  resp.Confidence,
		Sentiment:   resp.Sentiment,
		Keywords:    resp.Keywords,
	}, nil
}

// Retrieve returns knowledge passages relevant to query.
func (c *Client) Retrieve(ctx context.Context, query string) ([]Passage, error) {
	endpoint := c.baseURL + "/api/search?query=" + url.QueryEscape(query) + "&top_k=" + strconv.Itoa(c.topK)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []Passage `json:"results"`
	}
	if err := c.do(req, &resp); err != nil {
		observability.EngineCalls.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("search: %w", err)
	}
	observability.EngineCalls.WithLabelValues("search", "ok").Inc()
	return resp.Results, nil
}

// Generate drafts an answer to message grounded on the given passages.
func (c *Client) Generate(ctx context.Context, message string, passages []Passage) (Generation, error) {
	body := map[string]any{"message": message, "passages": passages}
	var gen Generation
	if err := c.post(ctx, "/api/generate", body, &gen); err != nil {
		observability.EngineCalls.WithLabelValues("generate", "error").Inc()
		return Generation{}, fmt.Errorf("generate: %w", err)
	}
	observability.EngineCalls.WithLabelValues("generate", "ok").Inc()
	return gen, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
