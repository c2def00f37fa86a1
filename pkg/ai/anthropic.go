package ai

import (
	"context"
	"fmt"
	"strings"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1"
	anthropicDefaultModel   = "claude-3-5-haiku-latest"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 2048
)

// AnthropicClient implements Generator with the Anthropic messages API.
type AnthropicClient struct {
	httpProvider
}

var _ Generator = (*AnthropicClient)(nil)

// NewAnthropicClient creates a new Anthropic API client.
func NewAnthropicClient(apiKey string, opts ...HTTPOption) *AnthropicClient {
	return &AnthropicClient{newHTTPProvider("anthropic", apiKey, anthropicDefaultBaseURL, anthropicDefaultModel, opts)}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicMessage struct {
	Role    string               `json:"role"`
	Content []anthropicTextBlock `json:"content"`
}

type anthropicTextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicTextBlock `json:"content"`
	Error   *anthropicError      `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// GenerateText sends the prompt and concatenates the returned text blocks.
func (c *AnthropicClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:  c.model,
		System: "Answer with the requested format only.",
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicTextBlock{{Type: "text", Text: prompt}},
		}},
		MaxTokens: anthropicMaxTokens,
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var result anthropicResponse
	if err := c.postJSON(ctx, "/messages", headers, reqBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s", result.Error.Message)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "" || block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no content returned")
	}
	return sb.String(), nil
}
