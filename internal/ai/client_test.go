package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-assistant/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.EngineConfig{BaseURL: server.URL, TimeoutSeconds: 2, RetrieveTopK: 3})
}

func TestClassify(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/classify", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "my invoice is wrong", body["text"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"intent":     "facturation",
			"confidence": 0.82,
			"sentiment":  -0.3,
			"keywords":   []string{"invoice"},
		})
	})

	raw, err := client.Classify(context.Background(), "my invoice is wrong")
	require.NoError(t, err)
	assert.Equal(t, "facturation", raw.IntentLabel)
	assert.InDelta(t, 0.82, raw.Confidence, 1e-9)
	assert.InDelta(t, -0.3, raw.Sentiment, 1e-9)
	assert.Equal(t, []string{"invoice"}, raw.Keywords)
}

func TestClassifyEngineFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.Classify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRetrieve(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "roaming fees", r.URL.Query().Get("query"))
		assert.Equal(t, "3", r.URL.Query().Get("top_k"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []Passage{{Title: "Roaming", Content: "Roaming is included", Score: 0.91}},
		})
	})

	passages, err := client.Retrieve(context.Background(), "roaming fees")
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "Roaming", passages[0].Title)
}

func TestGenerate(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var body struct {
			Message  string    `json:"message"`
			Passages []Passage `json:"passages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "how do I cancel", body.Message)
		require.Len(t, body.Passages, 1)

		_ = json.NewEncoder(w).Encode(Generation{Text: "You can cancel from your account page.", Confidence: 0.74})
	})

	gen, err := client.Generate(context.Background(), "how do I cancel", []Passage{{Title: "Cancel"}})
	require.NoError(t, err)
	assert.Equal(t, "You can cancel from your account page.", gen.Text)
	assert.InDelta(t, 0.74, gen.Confidence, 1e-9)
}
