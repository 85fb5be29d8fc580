// Package genai adapts Google's Gemini API to the content generation port.
package genai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client generates section content with a Gemini model.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates the Gemini-backed generator.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Complete runs one prompt and returns the raw completion text. Parsing and
// fence stripping are the caller's concern.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("model returned an empty completion")
	}
	return text, nil
}
