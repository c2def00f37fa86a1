// Package remote mirrors the dashboard snapshot to a configured REST endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// ErrPushFailed wraps every transport or server failure of a push.
var ErrPushFailed = errors.New("remote push failed")

const genericPushError = "the sync server did not respond"

// Status is the outcome of a push.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
	StatusDisabled Status = "disabled"
)

// Result describes a push outcome.
type Result struct {
	Status    Status `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ConfigSource loads the backend configuration on demand.
type ConfigSource interface {
	BackendConfig() (model.BackendConfig, error)
}

// Client pushes and pulls full snapshots.
type Client struct {
	httpClient *http.Client
	config     ConfigSource
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a remote sync client reading its configuration from src.
func NewClient(src ConfigSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		config:     src,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pushRequest struct {
	Token   string         `json:"token"`
	UserID  string         `json:"userId"`
	Content model.Snapshot `json:"content"`
}

type pushResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// Enabled reports whether remote sync is switched on and has an endpoint.
func (c *Client) Enabled() bool {
	cfg, err := c.config.BackendConfig()
	if err != nil {
		return false
	}
	return cfg.Active()
}

// Push writes the full snapshot to the endpoint. A disabled configuration is
// not an error: it returns StatusDisabled without touching the network.
func (c *Client) Push(ctx context.Context, snap model.Snapshot) (Result, error) {
	cfg, err := c.config.BackendConfig()
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}, fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	if !cfg.Active() {
		return Result{Status: StatusDisabled}, nil
	}

	body, err := json.Marshal(pushRequest{Token: cfg.Token, UserID: cfg.UserID, Content: snap})
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}, fmt.Errorf("%w: failed to marshal snapshot: %v", ErrPushFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return Result{Status: StatusError, Message: err.Error()}, fmt.Errorf("%w: failed to create request: %v", ErrPushFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("sync push transport error", zap.Error(err))
		return Result{Status: StatusError, Message: genericPushError}, fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	defer resp.Body.Close()

	respBytes, _ := io.ReadAll(resp.Body)
	var parsed pushResponse
	_ = json.Unmarshal(respBytes, &parsed)

	// A 2xx reply may still carry an error status in its body.
	if resp.StatusCode < 200 || resp.StatusCode > 299 || parsed.Status == string(StatusError) {
		msg := parsed.Error
		if msg == "" {
			msg = parsed.Message
		}
		if msg == "" {
			msg = genericPushError
		}
		c.logger.Warn("sync push rejected", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return Result{Status: StatusError, Message: msg}, fmt.Errorf("%w: status %d: %s", ErrPushFailed, resp.StatusCode, msg)
	}

	ts := parsed.Timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}
	return Result{Status: StatusSuccess, Message: parsed.Message, Timestamp: ts}, nil
}

// Pull reads the full snapshot. Every failure, including a disabled
// configuration, yields nil: no remote data is available.
func (c *Client) Pull(ctx context.Context) *model.RemoteSnapshot {
	cfg, err := c.config.BackendConfig()
	if err != nil || !cfg.Active() {
		return nil
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		c.logger.Debug("sync pull: invalid base url", zap.Error(err))
		return nil
	}
	q := u.Query()
	q.Set("token", cfg.Token)
	q.Set("userId", cfg.UserID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		c.logger.Debug("sync pull: failed to create request", zap.Error(err))
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("sync pull: transport error", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("sync pull: non-OK response", zap.Int("status", resp.StatusCode))
		return nil
	}

	var snap model.RemoteSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		c.logger.Debug("sync pull: failed to decode response", zap.Error(err))
		return nil
	}
	return &snap
}
