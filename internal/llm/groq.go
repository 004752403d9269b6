package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

	// DefaultGroqModel is used when no model is configured.
	DefaultGroqModel = "llama-3.3-70b-versatile"

	// requestTimeout caps one completion round trip, measured from request
	// start. On expiry the in-flight call is aborted, not left to drain.
	requestTimeout = 30 * time.Second
)

// GroqClient calls the Groq chat-completions API (OpenAI-compatible wire
// format). Cross-cutting behavior lives in Middleware, not here.
type GroqClient struct {
	http    *http.Client
	model   string
	baseURL string
	timeout time.Duration
}

// NewGroqClient creates a client for the given model ("" selects the
// default). The credential is supplied per Complete call, never stored.
func NewGroqClient(model string) *GroqClient {
	if strings.TrimSpace(model) == "" {
		model = DefaultGroqModel
	}
	return &GroqClient{
		http:    &http.Client{},
		model:   model,
		baseURL: groqEndpoint,
		timeout: requestTimeout,
	}
}

func (g *GroqClient) Name() string { return "groq:" + g.model }

func (g *GroqClient) Close() error { return nil }

type groqChatReq struct {
	Model          string            `json:"model"`
	Messages       []groqMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete issues exactly one request and classifies the outcome.
func (g *GroqClient) Complete(ctx context.Context, prompt, credential string, opts Options) (string, error) {
	body := groqChatReq{
		Model:       g.model,
		Messages:    []groqMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	}
	if opts.ExpectJSON {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := g.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, g.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", classifyStatus(resp.StatusCode, excerpt(raw))
	}

	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no content in choices", ErrMalformedEnvelope)
	}
	return out.Choices[0].Message.Content, nil
}

// excerpt caps an error body for diagnostics.
func excerpt(body []byte) string {
	const max = 2048
	if len(body) > max {
		body = body[:max]
	}
	return string(bytes.TrimSpace(body))
}
