package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"robohub/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	apiPrefix = "/api"

	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 64 << 10
)

// TokenSource supplies the bearer token attached to every call. An empty
// token means the call goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to the RoboHub REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	timeout    time.Duration
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a client for baseURL (without the /api prefix).
func New(baseURL string, tokens TokenSource, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		timeout:    DefaultTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody covers both FastAPI style {"detail": ...} and the structured
// {"error": {"message": ...}} shape.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b errorBody) message() string {
	if len(b.Detail) > 0 {
		var s string
		if err := json.Unmarshal(b.Detail, &s); err == nil {
			return s
		}
		// validation errors arrive as a list of objects
		return string(b.Detail)
	}
	return b.Error.Message
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	op := method + " " + apiPrefix + path

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Backend call failed",
			zap.String("request_id", requestID),
			zap.String("op", op),
			zap.Error(err),
		)
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Backend call completed",
		zap.String("request_id", requestID),
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &domain.NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	return c.statusError(op, path, resp)
}

func (c *Client) statusError(op, path string, resp *http.Response) error {
	var eb errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &eb); err != nil {
			c.logger.Debug("Undecodable error body", zap.String("op", op), zap.Error(err))
		}
	}
	detail := eb.message()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.AuthError{Message: detail, Err: domain.ErrUnauthorized}
	case resp.StatusCode == http.StatusNotFound:
		return &domain.NotFoundError{Resource: resourceOf(path), Message: detail}
	case resp.StatusCode >= 500:
		return &domain.NetworkError{Op: op, Err: errors.New(statusText(resp.StatusCode, detail))}
	default:
		return &domain.APIError{Status: resp.StatusCode, Detail: detail}
	}
}

func statusText(code int, detail string) string {
	if detail != "" {
		return fmt.Sprintf("%d %s", code, detail)
	}
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

var resources = map[string]string{
	"auth":       "user",
	"cart":       "cart",
	"categories": "category",
	"orders":     "order",
	"products":   "product",
}

// resourceOf names the resource of an API path, e.g. "/products/x" -> "product".
func resourceOf(path string) string {
	seg := strings.Trim(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if name, ok := resources[seg]; ok {
		return name
	}
	return seg
}
