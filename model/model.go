// Package model defines the uniform chat contract every LLM backend is
// adapted to, plus a deterministic MockProvider for tests. Divergent
// streaming and tool-calling semantics (Anthropic content blocks, OpenAI
// chat deltas) are normalized behind Provider so the engine never branches
// per vendor.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/loomhq/loom/core"
)

// Provider is the uniform streaming/sync chat contract over one backend.
//
// Cancellation is cooperative: StreamChat checks the context before each
// event emission, and a cancelled stream terminates without a message_stop
// and without an error. Transport errors that race with cancellation are
// swallowed.
type Provider interface {
	// Name identifies the backend ("anthropic", "openai", "mock").
	Name() string

	// Models lists the backend's model ids; the first entry is the fallback
	// when a request names no model.
	Models() []string

	// IsAvailable reports whether the backend's credential variable is
	// configured. Purely a local check, never a network probe.
	IsAvailable() bool

	// StreamChat emits an ordered, finite sequence of events ending in
	// exactly one message_stop (or none, if ctx was cancelled).
	StreamChat(ctx context.Context, req core.ChatRequest, onEvent func(core.StreamEvent)) error

	// SyncChat returns a single completed response, with token usage when
	// the backend reports it.
	SyncChat(ctx context.Context, req core.ChatRequest) (*core.SyncResponse, error)
}

// ErrUnavailable is returned when a provider is invoked without its
// credential configured. IsAvailable should gate selection upstream; calling
// through anyway is fatal for the request.
var ErrUnavailable = fmt.Errorf("provider credential not configured")

// ResolveModel returns the request's model or the provider's first listed one.
func ResolveModel(req core.ChatRequest, models []string) string {
	if req.Model != "" {
		return req.Model
	}
	if len(models) > 0 {
		return models[0]
	}
	return ""
}

// MockToolCall scripts one tool invocation the MockProvider should surface.
type MockToolCall struct {
	Name  string
	Input string
}

// MockProvider is a lightweight in-memory Provider useful for tests. Canned
// completions are keyed by the last user message; unknown prompts echo a
// deterministic fallback. Scripted tool calls are surfaced once, on the
// first sync response, mimicking a model that calls a tool then answers.
type MockProvider struct {
	mu        sync.Mutex
	name      string
	models    []string
	available bool
	responses map[string]string
	toolCalls []MockToolCall
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider constructs an available MockProvider.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:      name,
		models:    []string{"mock-small", "mock-large"},
		available: true,
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for a user prompt.
func (m *MockProvider) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// ScriptToolCalls queues tool calls to surface on the next sync response.
func (m *MockProvider) ScriptToolCalls(calls ...MockToolCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls = append(m.toolCalls, calls...)
}

// SetAvailable toggles the simulated credential presence.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// Name implements Provider.
func (m *MockProvider) Name() string { return m.name }

// Models implements Provider.
func (m *MockProvider) Models() []string { return m.models }

// IsAvailable implements Provider.
func (m *MockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// StreamChat implements Provider; emits the canned completion rune by rune.
func (m *MockProvider) StreamChat(ctx context.Context, req core.ChatRequest, onEvent func(core.StreamEvent)) error {
	resp, err := m.SyncChat(ctx, req)
	if err != nil {
		return err
	}
	for _, r := range resp.Content {
		if ctx.Err() != nil {
			return nil
		}
		onEvent(core.TextDelta(string(r)))
	}
	if ctx.Err() != nil {
		return nil
	}
	onEvent(core.MessageStop())
	return nil
}

// SyncChat implements Provider.
func (m *MockProvider) SyncChat(_ context.Context, req core.ChatRequest) (*core.SyncResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.available {
		return nil, fmt.Errorf("%s: %w", m.name, ErrUnavailable)
	}

	var lastUser string
	for _, msg := range req.Messages {
		if msg.Role == core.RoleUser {
			lastUser = msg.Content
		}
	}

	resp := &core.SyncResponse{
		Model: ResolveModel(req, m.models),
		Usage: &core.TokenUsage{InputTokens: len(req.Messages), OutputTokens: 1},
	}
	if len(m.toolCalls) > 0 {
		for i, tc := range m.toolCalls {
			input, _ := json.Marshal(map[string]string{"input": tc.Input})
			resp.ToolCalls = append(resp.ToolCalls, core.ToolCall{
				ID:    fmt.Sprintf("call_%d", i),
				Name:  tc.Name,
				Input: input,
			})
		}
		m.toolCalls = nil
		return resp, nil
	}

	content, ok := m.responses[lastUser]
	if !ok {
		content = fmt.Sprintf("Mock response to: %s", lastUser)
	}
	resp.Content = content
	return resp, nil
}
