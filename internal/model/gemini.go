// ABOUTME: Gemini implementation of the model Client using google.golang.org/genai
// ABOUTME: Maps the chat taxonomy onto genai Content values, one GenerateContent call per Complete

package model

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig holds the settings for constructing a GeminiClient.
type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiClient implements Client against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	config GeminiConfig
}

// NewGeminiClient constructs a Gemini-backed model client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client, config: cfg}, nil
}

// Complete issues a single GenerateContent call and returns the reply.
func (g *GeminiClient) Complete(ctx context.Context, messages []ChatMessage) (AssistantMessage, error) {
	contents, system := toGeminiContents(messages)

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.config.Temperature),
	}
	if g.config.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = g.config.MaxOutputTokens
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, genCfg)
	if err != nil {
		return AssistantMessage{}, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return AssistantMessage{}, ErrEmptyCompletion
	}
	return AssistantMessage{Content: text}, nil
}

// toGeminiContents converts the chat taxonomy into genai contents plus the
// concatenated system instruction (Gemini carries it out of band).
func toGeminiContents(messages []ChatMessage) ([]*genai.Content, string) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch m := msg.(type) {
		case SystemMessage:
			system = append(system, m.Content)

		case UserMessage:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))

		case AssistantMessage:
			parts := []*genai.Part{}
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: tc.Args,
					},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, genai.NewPartFromText(""))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))

		case ToolMessage:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Response: map[string]any{"output": m.Content},
				},
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}

	return contents, strings.Join(system, "\n\n")
}
