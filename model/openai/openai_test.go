package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/model"
)

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider(func(o *Options) { o.APIKey = "" })

	assert.Equal(t, "openai", p.Name())
	require.NotEmpty(t, p.Models())
	assert.False(t, p.IsAvailable())
}

func TestProvider_UnavailableWithoutKey(t *testing.T) {
	p := NewProvider(func(o *Options) { o.APIKey = "" })

	_, err := p.SyncChat(context.Background(), core.ChatRequest{})
	assert.True(t, errors.Is(err, model.ErrUnavailable))

	err = p.StreamChat(context.Background(), core.ChatRequest{}, func(core.StreamEvent) {})
	assert.True(t, errors.Is(err, model.ErrUnavailable))
}

func TestBuildParams_SystemPromptAndTools(t *testing.T) {
	p := NewProvider(func(o *Options) { o.APIKey = "k" })

	params := p.buildParams(core.ChatRequest{
		SystemPrompt: "you are helpful",
		Messages: []core.Message{
			{Role: core.RoleUser, Content: "hi"},
			{Role: core.RoleAssistant, Content: ""},
		},
		Tools: []core.ToolDefinition{{
			Name:        "calculator",
			Description: "evaluate arithmetic",
			InputSchema: map[string]any{"type": "object"},
		}},
	})

	// System prompt leads, empty messages are dropped.
	require.Len(t, params.Messages, 2)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "calculator", params.Tools[0].Function.Name)
}
