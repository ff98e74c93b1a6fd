package core

import "encoding/json"

// Conversation roles as used by all provider backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// DefaultMaxTokens is applied when a ChatRequest does not set MaxTokens.
const DefaultMaxTokens = 4096

// Message is a single conversation entry in conversation order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest captures the normalized provider input produced per turn.
// An optional SystemPrompt becomes one leading system-role message; a missing
// Model falls back to the backend's first listed model; a missing MaxTokens
// defaults to DefaultMaxTokens.
type ChatRequest struct {
	Messages     []Message        `json:"messages"`
	SystemPrompt string           `json:"system_prompt,omitempty"`
	Model        string           `json:"model,omitempty"`
	MaxTokens    int64            `json:"max_tokens,omitempty"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// EffectiveMaxTokens returns MaxTokens or the default when unset.
func (r ChatRequest) EffectiveMaxTokens() int64 {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

// StreamEventType discriminates the StreamEvent variants.
type StreamEventType string

const (
	// StreamEventTextDelta carries an incremental chunk of assistant text.
	StreamEventTextDelta StreamEventType = "text_delta"
	// StreamEventMessageStop terminates a stream; emitted exactly once per
	// completed request, never after cancellation.
	StreamEventMessageStop StreamEventType = "message_stop"
)

// StreamEvent is one element of the ordered, finite event sequence a provider
// emits for a streaming request.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	Text string          `json:"text,omitempty"`
}

// TextDelta constructs a text_delta event.
func TextDelta(text string) StreamEvent {
	return StreamEvent{Type: StreamEventTextDelta, Text: text}
}

// MessageStop constructs the terminal message_stop event.
func MessageStop() StreamEvent {
	return StreamEvent{Type: StreamEventMessageStop}
}

// TokenUsage captures token counts when the backend reports them.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ToolCall is a model-issued request to invoke a named skill with structured input.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// InputString extracts the single "input" argument of a skill tool call. It
// tolerates both the canonical {"input": "..."} object and a bare JSON string.
func (c ToolCall) InputString() string {
	var args struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal(c.Input, &args); err == nil && args.Input != "" {
		return args.Input
	}
	var s string
	if err := json.Unmarshal(c.Input, &s); err == nil {
		return s
	}
	return string(c.Input)
}

// SyncResponse is the result of a non-streaming chat completion. Usage is nil
// when the backend does not report token counts. ToolCalls carries any skill
// invocations the model issued instead of (or alongside) text.
type SyncResponse struct {
	Content   string      `json:"content"`
	Model     string      `json:"model"`
	Usage     *TokenUsage `json:"usage,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
}

// ToolDefinition declaratively exposes a callable skill to the model.
// InputSchema is a JSON Schema object (minimal subset).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}
