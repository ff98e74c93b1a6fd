package anthropic

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

	assert.Equal(t, "anthropic", p.Name())
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

func TestBuildMessages_SkipsSystemAndEmpty(t *testing.T) {
	msgs := buildMessages([]core.Message{
		{Role: core.RoleSystem, Content: "you are helpful"},
		{Role: core.RoleUser, Content: ""},
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	})
	assert.Len(t, msgs, 2)
}

func TestBuildTools(t *testing.T) {
	out := buildTools([]core.ToolDefinition{{
		Name:        "calculator",
		Description: "evaluate arithmetic",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{"type": "string"},
			},
			"required": []string{"input"},
		},
	}})

	require.Len(t, out, 1)
	require.NotNil(t, out[0].OfTool)
	assert.Equal(t, "calculator", out[0].OfTool.Name)
	assert.Equal(t, []string{"input"}, out[0].OfTool.InputSchema.Required)
}
