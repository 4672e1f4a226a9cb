// Package vision talks to an OpenAI-compatible chat completions API to check
// and describe report images.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/blackmichael/spotreport/internal/domain"
	"github.com/blackmichael/spotreport/internal/imaging"
	"github.com/blackmichael/spotreport/internal/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"
	defaultTimeout = 30 * time.Second

	// maxResponseBytes bounds how much of a completion body is read.
	maxResponseBytes = 1 << 20
)

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds each completion call. Zero means 30s.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client implements domain.Classifier.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *slog.Logger
}

var _ domain.Classifier = (*Client)(nil)

// NewClient creates a completion client. Calls share one circuit breaker
// that opens after repeated transport failures.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		breaker:    newBreaker("vision", cfg.Logger),
		logger:     cfg.Logger,
	}
}

// Verify asks whether image depicts kind.
func (c *Client) Verify(ctx context.Context, kind string, image []byte) (bool, error) {
	start := time.Now()
	reply, err := c.complete(ctx, verifyMessages(kind, image))
	if err != nil {
		metrics.ObserveClassifier("verify", outcome(err), start)
		return false, err
	}

	ok, err := ParseVerdict(reply)
	metrics.ObserveClassifier("verify", outcome(err), start)
	return ok, err
}

// Annotate asks for a Finnish caption, a short title and one of kinds.
func (c *Client) Annotate(ctx context.Context, kinds []string, image []byte) (domain.Annotation, error) {
	start := time.Now()
	reply, err := c.complete(ctx, annotateMessages(kinds, image))
	if err != nil {
		metrics.ObserveClassifier("annotate", outcome(err), start)
		return domain.Annotation{}, err
	}

	ann, err := ParseAnnotation(reply)
	metrics.ObserveClassifier("annotate", outcome(err), start)
	return ann, err
}

// complete sends one chat completion through the breaker and returns the
// first choice's text.
func (c *Client) complete(ctx context.Context, messages []message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.breaker.Execute(func() (string, error) {
		reply, err := c.post(callCtx, chatRequest{Model: c.model, Messages: messages})
		if err != nil && ctx.Err() != nil {
			// The caller went away; says nothing about the API.
			return "", fmt.Errorf("%w: %w", errAbandoned, ctx.Err())
		}
		return reply, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", domain.ErrClassifierUnavailable, err)
	}
	return reply, err
}

func (c *Client) post(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %w", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrClassifierUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: API error (status %d): %s", domain.ErrClassifierUnavailable, resp.StatusCode, truncate(respBody, 200))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: unmarshal response: %w", domain.ErrClassifierMalformed, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", domain.ErrClassifierEmpty)
	}
	return result.Choices[0].Message.Content, nil
}

// imageURL encodes image as a data URL.
func imageURL(image []byte) string {
	return "data:" + imaging.ContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrClassifierUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrClassifierMalformed):
		return "malformed"
	case errors.Is(err, domain.ErrClassifierEmpty):
		return "empty"
	case errors.Is(err, errAbandoned):
		return "abandoned"
	default:
		return "error"
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
