package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPOption configures the HTTP based providers.
type HTTPOption func(*httpProvider)

// WithModel overrides the provider's default model.
func WithModel(model string) HTTPOption {
	return func(p *httpProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) HTTPOption {
	return func(p *httpProvider) {
		if baseURL != "" {
			p.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *httpProvider) { p.httpClient = c }
}

type httpProvider struct {
	name       string
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

func newHTTPProvider(name, apiKey, baseURL, model string, opts []HTTPOption) httpProvider {
	p := httpProvider{
		name:       name,
		httpClient: &http.Client{},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// postJSON sends body to path and decodes a 200 response into out.
func (p *httpProvider) postJSON(ctx context.Context, path string, headers map[string]string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s API error (status %d): %s", p.name, resp.StatusCode, string(respBytes))
	}

	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Close is a no-op for HTTP based providers.
func (p *httpProvider) Close() error {
	return nil
}
