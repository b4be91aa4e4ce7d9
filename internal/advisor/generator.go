package advisor

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Request is one call to the generative service: an instruction and, for
// structured operations, the schema the answer must follow.
type Request struct {
	Prompt          string
	Schema          *genai.Schema
	Temperature     *float32
	MaxOutputTokens int32
}

// Generator sends a request to a generative model and returns its raw text.
// It enables testing the adapter without network access.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GenAIGenerator is the Generator backed by the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a Gemini API client for model.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIGenerator: create genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

var _ Generator = (*GenAIGenerator)(nil)
