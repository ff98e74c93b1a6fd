// Package openai adapts the OpenAI Chat Completions API (sync and streaming)
// to the generic model.Provider contract.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/loomhq/loom/config"
	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/model"
)

var defaultModels = []string{
	openai.ChatModelGPT4oMini,
	openai.ChatModelGPT4o,
}

// Options configure the OpenAI provider. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal.
type Options struct {
	Models      []string
	Temperature float64
	APIKey      string
}

// Provider wraps the OpenAI Chat Completions API behind model.Provider.
type Provider struct {
	client *openai.Client
	opts   Options
}

var _ model.Provider = (*Provider)(nil)

// NewProvider creates an OpenAI provider. The API key defaults to the
// OPENAI_API_KEY environment variable; its presence alone decides IsAvailable.
func NewProvider(optFns ...func(o *Options)) *Provider {
	opts := Options{
		Models:      defaultModels,
		Temperature: 0.7,
		APIKey:      os.Getenv(config.EnvOpenAIAPIKey),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// Name implements model.Provider.
func (p *Provider) Name() string { return "openai" }

// Models implements model.Provider.
func (p *Provider) Models() []string { return p.opts.Models }

// IsAvailable reports credential presence; it never probes the network.
func (p *Provider) IsAvailable() bool { return p.opts.APIKey != "" }

// SyncChat implements model.Provider.
func (p *Provider) SyncChat(ctx context.Context, req core.ChatRequest) (*core.SyncResponse, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("openai: %w", model.ErrUnavailable)
	}

	resp, err := p.client.Chat.Completions.New(ctx, p.buildParams(req))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	choice := resp.Choices[0]
	out := &core.SyncResponse{
		Content: choice.Message.Content,
		Model:   resp.Model,
	}
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		out.Usage = &core.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		}
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// StreamChat implements model.Provider. Cancellation is cooperative: the
// context is checked before each emission, a cancelled stream ends without a
// message_stop and without an error.
func (p *Provider) StreamChat(ctx context.Context, req core.ChatRequest, onEvent func(core.StreamEvent)) error {
	if !p.IsAvailable() {
		return fmt.Errorf("openai: %w", model.ErrUnavailable)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(req))
	stopped := false
	for stream.Next() {
		if ctx.Err() != nil {
			return nil
		}
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				onEvent(core.TextDelta(choice.Delta.Content))
			}
			if choice.FinishReason != "" && !stopped {
				stopped = true
				onEvent(core.MessageStop())
			}
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("openai streaming error: %w", err)
	}
	if !stopped && ctx.Err() == nil {
		onEvent(core.MessageStop())
	}
	return nil
}

func (p *Provider) buildParams(req core.ChatRequest) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               model.ResolveModel(req, p.opts.Models),
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(req.EffectiveMaxTokens()),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tool := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  tool.InputSchema,
			},
		}
	}
	params.Tools = tools
	return params
}
