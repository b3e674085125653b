package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SelectsProvider(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: "Anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic:claude-3-5-haiku-latest", p.Name())

	p, err = New(context.Background(), Config{Provider: "openai", APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-4o", p.Name())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "openai"})
	assert.Error(t, err)
	_, err = New(context.Background(), Config{Provider: "vertex"})
	assert.Error(t, err)
	_, err = New(context.Background(), Config{Provider: "llama"})
	assert.Error(t, err)
}
