// Package anthropic adapts the Anthropic Messages API (sync and SSE
// streaming) to the generic model.Provider contract.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/loomhq/loom/config"
	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/model"
)

var defaultModels = []string{
	"claude-sonnet-4-20250514",
	"claude-3-5-haiku-20241022",
}

// Options configures the Anthropic provider (model list, temperature, API
// key). Extend via functional options to preserve stability.
type Options struct {
	Models      []string
	Temperature float64
	APIKey      string
}

// Provider wraps the Anthropic Messages API behind model.Provider.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

var _ model.Provider = (*Provider)(nil)

// NewProvider creates an Anthropic provider. The API key defaults to the
// ANTHROPIC_API_KEY environment variable; its presence alone decides
// IsAvailable.
func NewProvider(optFns ...func(o *Options)) *Provider {
	opts := Options{
		Models:      defaultModels,
		Temperature: 0.7,
		APIKey:      os.Getenv(config.EnvAnthropicAPIKey),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// Name implements model.Provider.
func (p *Provider) Name() string { return "anthropic" }

// Models implements model.Provider.
func (p *Provider) Models() []string { return p.opts.Models }

// IsAvailable reports credential presence; it never probes the network.
func (p *Provider) IsAvailable() bool { return p.opts.APIKey != "" }

// SyncChat implements model.Provider.
func (p *Provider) SyncChat(ctx context.Context, req core.ChatRequest) (*core.SyncResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("anthropic: %w", model.ErrUnavailable)
	}

	resp, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := &core.SyncResponse{
		Model: string(resp.Model),
		Usage: &core.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			input, err := json.Marshal(toolBlock.Input)
			if err != nil {
				input = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:    toolBlock.ID,
				Name:  toolBlock.Name,
				Input: input,
			})
		}
	}
	out.Content = text.String()
	return out, nil
}

// StreamChat implements model.Provider. Cancellation is cooperative: the
// context is checked before each emission, a cancelled stream ends without a
// message_stop and without an error.
func (p *Provider) StreamChat(ctx context.Context, req core.ChatRequest, onEvent func(core.StreamEvent)) error {
	if !p.IsAvailable() {
		return fmt.Errorf("anthropic: %w", model.ErrUnavailable)
	}

	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))
	stopped := false
	for stream.Next() {
		if ctx.Err() != nil {
			return nil
		}
		event := stream.Current()
		switch event.Type {
		case "content_block_delta":
			delta := event.AsContentBlockDelta()
			if d, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok {
				onEvent(core.TextDelta(d.Text))
			}
		case "message_stop":
			stopped = true
			onEvent(core.MessageStop())
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("anthropic streaming error: %w", err)
	}
	if !stopped && ctx.Err() == nil {
		onEvent(core.MessageStop())
	}
	return nil
}

func (p *Provider) buildParams(req core.ChatRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model.ResolveModel(req, p.opts.Models)),
		MaxTokens:   req.EffectiveMaxTokens(),
		Temperature: anthropic.Float(p.opts.Temperature),
		Messages:    buildMessages(req.Messages),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	return params
}

// buildMessages converts conversation messages into Anthropic message params.
// System-role entries are skipped here; the system prompt travels separately
// in params.System. Tool-role entries become user-turn text, matching how the
// degraded single-string skill results are fed back.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case core.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case core.RoleSystem:
			continue
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}

func buildTools(tools []core.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: tool.InputSchema["properties"],
			},
		}
		if required, ok := tool.InputSchema["required"].([]string); ok {
			toolParam.InputSchema.Required = required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}
