package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsedesk/pkg/errors"
)

func newTestClient(serverURL string, timeout time.Duration) *Client {
	return New(Config{
		URL:           serverURL,
		Model:         "llama3.2",
		Timeout:       timeout,
		Temperature:   0.05,
		TopP:          0.6,
		MaxTokens:     200,
		RepeatPenalty: 1.1,
	})
}

func TestGenerate_SendsExpectedPayload(t *testing.T) {
	var captured generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_, _ = w.Write([]byte(`{"response": "all good"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2*time.Second)

	out, err := client.Generate(context.Background(), "the prompt", "the system prompt")
	require.NoError(t, err)
	assert.Equal(t, "all good", out)

	assert.Equal(t, "llama3.2", captured.Model)
	assert.Equal(t, "the prompt", captured.Prompt)
	assert.Equal(t, "the system prompt", captured.System)
	assert.False(t, captured.Stream)
	assert.Equal(t, 0.05, captured.Options.Temperature)
	assert.Equal(t, 0.6, captured.Options.TopP)
	assert.Equal(t, 200, captured.Options.MaxTokens)
	assert.Equal(t, 200, captured.Options.NumPredict)
	assert.Equal(t, 1.1, captured.Options.RepeatPenalty)
	assert.Equal(t, []string{"\n\n", "---", "END"}, captured.Options.Stop)
}

func TestGenerate_OmitsEmptySystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "system")

		_, _ = w.Write([]byte(`{"response": "ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2*time.Second)

	_, err := client.Generate(context.Background(), "prompt only", "")
	require.NoError(t, err)
}

func TestGenerate_TimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"response": "too late"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 50*time.Millisecond)

	start := time.Now()
	out, err := client.Generate(context.Background(), "prompt", "")
	assert.Empty(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestGenerate_Non2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2*time.Second)

	out, err := client.Generate(context.Background(), "prompt", "")
	assert.Empty(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUpstreamStatus))
}
