// Package apiclient is a small client for the spotreport HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/blackmichael/spotreport/internal/domain"
	"github.com/blackmichael/spotreport/internal/imaging"
)

const defaultBaseURL = "http://localhost:8000"

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// Client talks to a spotreport server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. If baseURL is empty it defaults to
// http://localhost:8000. Requests that submit images can take as long as the
// server's classifier, so the timeout is generous.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// ListKinds returns all registered kinds.
func (c *Client) ListKinds(ctx context.Context) ([]domain.Kind, error) {
	var kinds []domain.Kind
	if err := c.do(ctx, http.MethodGet, "/kinds", nil, nil, &kinds); err != nil {
		return nil, fmt.Errorf("list kinds: %w", err)
	}
	return kinds, nil
}

// CreateKind registers a kind and returns its id.
func (c *Client) CreateKind(ctx context.Context, name, description string) (int64, error) {
	payload, err := json.Marshal(domain.Kind{Name: name, Description: description})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	header := http.Header{"Content-Type": {"application/json"}}
	var id int64
	if err := c.do(ctx, http.MethodPost, "/kind", header, payload, &id); err != nil {
		return 0, fmt.Errorf("create kind: %w", err)
	}
	return id, nil
}

// DeleteKind removes a kind by name and returns its id.
func (c *Client) DeleteKind(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := c.do(ctx, http.MethodDelete, "/kind/"+url.PathEscape(name), nil, nil, &id); err != nil {
		return 0, fmt.Errorf("delete kind: %w", err)
	}
	return id, nil
}

// ListPosts returns all post summaries.
func (c *Client) ListPosts(ctx context.Context) ([]domain.PostSummary, error) {
	var posts []domain.PostSummary
	if err := c.do(ctx, http.MethodGet, "/posts", nil, nil, &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// PostImage downloads a post's image.
func (c *Client) PostImage(ctx context.Context, id int64) ([]byte, error) {
	var data []byte
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/img", id), nil, nil, &data); err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return data, nil
}

// Upvote increments a post's score and returns the new score.
func (c *Client) Upvote(ctx context.Context, id int64) (int64, error) {
	var score int64
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/upvote", id), nil, nil, &score); err != nil {
		return 0, fmt.Errorf("upvote: %w", err)
	}
	return score, nil
}

// SubmitPost uploads post.Image with the metadata in X- headers and returns
// the new post id.
func (c *Client) SubmitPost(ctx context.Context, post *domain.NewPost) (int64, error) {
	header := http.Header{}
	header.Set("Content-Type", imaging.ContentType(post.Image))
	header.Set("X-Latitude", strconv.FormatFloat(post.Latitude, 'f', -1, 64))
	header.Set("X-Longitude", strconv.FormatFloat(post.Longitude, 'f', -1, 64))
	header.Set("X-Kind", post.Kind)
	header.Set("X-Title", post.Title)
	header.Set("X-Text", post.Text)
	header.Set("X-Address", post.Address)

	var id int64
	if err := c.do(ctx, http.MethodPost, "/post", header, post.Image, &id); err != nil {
		return 0, fmt.Errorf("submit post: %w", err)
	}
	return id, nil
}

// Annotate asks the server to describe image.
func (c *Client) Annotate(ctx context.Context, image []byte) (domain.Annotation, error) {
	header := http.Header{"Content-Type": {imaging.ContentType(image)}}

	var ann domain.Annotation
	if err := c.do(ctx, http.MethodPost, "/annotate", header, image, &ann); err != nil {
		return domain.Annotation{}, fmt.Errorf("annotate: %w", err)
	}
	return ann, nil
}

// do sends a request and decodes a JSON response into result. A *[]byte
// result receives the raw body instead.
func (c *Client) do(ctx context.Context, method, path string, header http.Header, body []byte, result any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if raw, ok := result.(*[]byte); ok {
		*raw = respBody
		return nil
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
