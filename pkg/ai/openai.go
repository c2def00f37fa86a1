package ai

import (
	"context"
	"fmt"
)

const (
	openAIDefaultBaseURL   = "https://api.openai.com/v1"
	openAIDefaultModel     = "gpt-4o-mini"
	moonshotDefaultBaseURL = "https://api.moonshot.ai/v1"
	moonshotDefaultModel   = "kimi-k2.5"
)

// ChatClient talks to any OpenAI compatible chat completions endpoint.
type ChatClient struct {
	httpProvider
}

var _ Generator = (*ChatClient)(nil)

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string, opts ...HTTPOption) *ChatClient {
	return &ChatClient{newHTTPProvider("openai", apiKey, openAIDefaultBaseURL, openAIDefaultModel, opts)}
}

// NewMoonshotClient creates a client for the Moonshot (Kimi) API, which speaks
// the OpenAI protocol.
func NewMoonshotClient(apiKey string, opts ...HTTPOption) *ChatClient {
	return &ChatClient{newHTTPProvider("moonshot", apiKey, moonshotDefaultBaseURL, moonshotDefaultModel, opts)}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GenerateText sends the prompt as a single user message.
func (c *ChatClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	var result chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := c.postJSON(ctx, "/chat/completions", headers, reqBody, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("%s API error: %s", c.name, result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}
