// Package llm wraps the Gemini API behind the two capabilities the pipeline
// needs: chat completion and text embedding. No schema enforcement happens
// here; validating model output is the normalizer's job.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is the chat model used for normalization and the advisor
	// endpoint.
	DefaultModel = "gemini-2.0-flash"
	// DefaultEmbeddingModel is the model used for vector-store embeddings.
	DefaultEmbeddingModel = "text-embedding-004"
)

// Completer produces one text response for a system instruction plus ordered
// user prompts.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, userPrompts []string) (string, error)
}

// Embedder produces an embedding vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Client implements Completer and Embedder over the Gemini API.
type Client struct {
	gClient        *genai.Client
	modelName      string
	embeddingModel string
}

// Config holds the LLM client settings.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
}

// NewClient creates a Gemini-backed client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	gClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	embedding := strings.TrimSpace(cfg.EmbeddingModel)
	if embedding == "" {
		embedding = DefaultEmbeddingModel
	}

	return &Client{
		gClient:        gClient,
		modelName:      model,
		embeddingModel: embedding,
	}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.gClient.Close()
}

// Complete sends the system instruction and user prompts to the chat model
// and returns the concatenated text of the first candidate.
func (c *Client) Complete(ctx context.Context, systemPrompt string, userPrompts []string) (string, error) {
	model := c.gClient.GenerativeModel(c.modelName)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	parts := make([]genai.Part, 0, len(userPrompts))
	for _, prompt := range userPrompts {
		parts = append(parts, genai.Text(prompt))
	}
	if len(parts) == 0 {
		return "", errors.New("at least one user prompt is required")
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return extractText(resp)
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.gClient.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("embedding response is empty")
	}
	return res.Embedding.Values, nil
}

// extractText flattens the first candidate's parts to a single string.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("model returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("model candidate contained no text")
	}
	return b.String(), nil
}
