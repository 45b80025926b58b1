// Package client performs single HTTP calls against the remote school API
// and returns typed records or structured errors. It never retries; retry
// policy belongs to callers.
package client

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/session"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/middleware/requestid"
)

// Observer records upstream request metrics.
type Observer interface {
	ObserveUpstreamRequest(method, resource string, status int, duration time.Duration)
}

// Client talks to the school API.
type Client struct {
	baseURL  string
	http     *http.Client
	session  session.Provider
	logger   *zap.Logger
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver attaches upstream metrics.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// New constructs a client for baseURL authenticated through provider.
func New(baseURL string, provider session.Provider, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		session: provider,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// do performs one request. A nil out discards the body; 204 never decodes.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set(requestid.HeaderKey, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(method, path, 0, duration)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		c.logger.Warn("school api unreachable", zap.String("method", method), zap.String("path", path), zap.String("request_id", reqID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close() //nolint:errcheck
	c.observe(method, path, resp.StatusCode, duration)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, "read response body")
	}

	c.logger.Debug("school api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", duration),
		zap.String("request_id", reqID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapEnvelope(raw), out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrAPI.Code, appErrors.ErrAPI.Status, fmt.Sprintf("decode %s %s response", method, path))
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.session == nil {
		return "", nil
	}
	return c.session.Token(ctx)
}

func (c *Client) observe(method, path string, status int, duration time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstreamRequest(method, resourceOf(path), status, duration)
}

// resourceOf keeps metric labels bounded by dropping ids from the path.
func resourceOf(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || strings.IndexFunc(seg, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			kept = append(kept, ":id")
			continue
		}
		kept = append(kept, seg)
	}
	return "/" + strings.Join(kept, "/")
}

// unwrapEnvelope returns the data member of a {"data": ...} envelope, or raw.
func unwrapEnvelope(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || len(envelope.Data) == 0 {
		return raw
	}
	return envelope.Data
}
