package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []genai.Part{genai.Text("first "), genai.Text("second")},
			},
		}},
	}

	text, err := extractText(resp)
	require.NoError(t, err)
	assert.Equal(t, "first second", text)
}

func TestExtractTextEmptyResponse(t *testing.T) {
	_, err := extractText(nil)
	require.Error(t, err)

	_, err = extractText(&genai.GenerateContentResponse{})
	require.Error(t, err)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	require.Error(t, err)
}
