package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"pulsedesk/internal/metrics"
	"pulsedesk/pkg/errors"
	"pulsedesk/pkg/logger"
)

// Client talks to a local Ollama-compatible /api/generate endpoint.
// Requests are non-streaming and bounded by a hard timeout; a timeout
// aborts the generation rather than waiting it out.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	options    Options
	httpClient *http.Client
	log        *logger.Logger
}

// Options are the generation parameters sent with every request.
type Options struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	MaxTokens     int      `json:"max_tokens"`
	NumPredict    int      `json:"num_predict"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	Stop          []string `json:"stop"`
}

// Config holds Client construction parameters.
type Config struct {
	URL           string
	Model         string
	Timeout       time.Duration
	Temperature   float64
	TopP          float64
	MaxTokens     int
	RepeatPenalty float64
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// New creates a generation client.
func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		options: Options{
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			MaxTokens:     cfg.MaxTokens,
			NumPredict:    cfg.MaxTokens,
			RepeatPenalty: cfg.RepeatPenalty,
			Stop:          []string{"\n\n", "---", "END"},
		},
		httpClient: &http.Client{},
		log:        logger.Get().With("adapter", "ollama"),
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate sends a prompt (plus optional system prompt) and returns the
// raw response text. The call is cancelled after the configured timeout.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  systemPrompt,
		Stream:  false,
		Options: c.options,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordUpstreamCall("ollama", time.Since(start), err)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.Wrapf(errors.ErrTimeout, "generation timed out after %s", c.timeout)
		}
		return "", errors.Wrapf(errors.ErrGenerationFailed, "send generate request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Wrapf(errors.ErrUpstreamStatus, "generate status %d: %s", resp.StatusCode, string(body))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(errors.ErrUpstreamPayload, err.Error())
	}

	c.log.Debugw("generation complete", "elapsed", time.Since(start), "chars", len(decoded.Response))
	return decoded.Response, nil
}
