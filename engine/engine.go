package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/loomhq/loom/agent"
	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/logging"
	"github.com/loomhq/loom/memory"
	"github.com/loomhq/loom/model"
	"github.com/loomhq/loom/skill"
)

// Config defines tuning parameters for the engine's turn loop.
type Config struct {
	// MaxToolRounds bounds how many provider round-trips a single turn may
	// spend resolving tool calls before the turn is answered with whatever
	// content the last round produced.
	MaxToolRounds int

	// BufferMaxMessages caps the conversation buffer written back per turn.
	BufferMaxMessages int
}

// DefaultConfig provides conservative defaults: four tool rounds, the
// standard 20-message buffer.
var DefaultConfig = Config{
	MaxToolRounds:     4,
	BufferMaxMessages: core.DefaultBufferMaxMessages,
}

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	Config      Config
	Router      *agent.Router
	Registry    *agent.Registry
	Coordinator *memory.Coordinator
	ShortTerm   core.ShortTermStore
	Dispatcher  *skill.Dispatcher
	Provider    model.Provider
	Logger      logging.Logger
}

// Turn is one inbound message for a tenant/session, as normalized by the
// messaging connectors before the orchestrator is invoked.
type Turn struct {
	TenantID  string
	UserID    string
	SessionID string
	Message   string
}

// TurnResult captures the completed turn.
type TurnResult struct {
	PersonaID     string
	Content       string
	Model         string
	Usage         *core.TokenUsage
	SkillsInvoked []string
}

// Engine runs the route -> context -> completion -> tool dispatch loop for
// one turn at a time. It is safe for concurrent use across turns.
type Engine struct {
	*core.LoggerAdapter
	cfg         Config
	router      *agent.Router
	registry    *agent.Registry
	coordinator *memory.Coordinator
	shortTerm   core.ShortTermStore
	dispatcher  *skill.Dispatcher
	provider    model.Provider
}

// New constructs an Engine. Router, registry and dispatcher default to their
// built-in tables; the provider has no default and must be supplied.
func New(optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Config:   DefaultConfig,
		Router:   agent.DefaultRouter(),
		Registry: agent.NewRegistry(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("engine: provider is required")
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = skill.NewDispatcher(func(o *skill.DispatcherOptions) {
			o.Logger = opts.Logger
		})
	}
	if opts.Config.MaxToolRounds <= 0 {
		opts.Config.MaxToolRounds = DefaultConfig.MaxToolRounds
	}
	if opts.Config.BufferMaxMessages <= 0 {
		opts.Config.BufferMaxMessages = DefaultConfig.BufferMaxMessages
	}
	return &Engine{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		cfg:           opts.Config,
		router:        opts.Router,
		registry:      opts.Registry,
		coordinator:   opts.Coordinator,
		shortTerm:     opts.ShortTerm,
		dispatcher:    opts.Dispatcher,
		provider:      opts.Provider,
	}, nil
}

// RouteToAgent exposes the router's classification for collaborators that
// only need the persona id.
func (e *Engine) RouteToAgent(message string) string {
	return e.router.Route(message)
}

// RunTurn executes one full turn synchronously and returns the final
// assistant content.
func (e *Engine) RunTurn(ctx context.Context, turn Turn) (*TurnResult, error) {
	return e.run(ctx, turn, nil)
}

// StreamTurn executes one full turn, relaying the assistant's answer through
// onEvent as an ordered sequence of text_delta events terminated by one
// message_stop (or none, if ctx is cancelled). Tool rounds are resolved
// internally before anything is streamed; only the final answer surfaces as
// events.
func (e *Engine) StreamTurn(ctx context.Context, turn Turn, onEvent func(core.StreamEvent)) (*TurnResult, error) {
	if onEvent == nil {
		return nil, fmt.Errorf("engine: onEvent is required for streaming")
	}
	return e.run(ctx, turn, onEvent)
}

func (e *Engine) run(ctx context.Context, turn Turn, onEvent func(core.StreamEvent)) (*TurnResult, error) {
	if !e.provider.IsAvailable() {
		return nil, fmt.Errorf("engine: provider %s: %w", e.provider.Name(), model.ErrUnavailable)
	}

	personaID := e.router.Route(turn.Message)
	persona := e.registry.Get(personaID)
	e.LogDebug("turn routed", "tenant_id", turn.TenantID, "persona", persona.ID)

	systemPrompt := persona.SystemPrompt
	if e.coordinator != nil {
		if memoryContext := e.coordinator.RelevantContext(ctx, turn.TenantID, turn.UserID, turn.Message); memoryContext != "" {
			systemPrompt += "\n\nWhat you know about this user:\n" + memoryContext
		}
	}

	messages := e.historyMessages(ctx, turn)
	messages = append(messages, core.Message{Role: core.RoleUser, Content: turn.Message})

	result := &TurnResult{PersonaID: persona.ID}
	tools := e.dispatcher.BuildToolDefinitions(persona.AllowedTools)

	resp, err := e.toolLoop(ctx, turn, systemPrompt, messages, tools, result)
	if err != nil {
		return nil, err
	}
	result.Content = resp.Content
	result.Model = resp.Model
	result.Usage = resp.Usage

	if onEvent != nil {
		if err := e.streamFinal(ctx, resp, onEvent); err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			// Cancelled turns are not written back; the caller saw no
			// message_stop and will retry or drop the turn.
			return result, nil
		}
	}

	e.writeBack(ctx, turn, persona.ID, result.Content)
	return result, nil
}

// toolLoop drives provider rounds until the model answers with plain content
// or the round budget is exhausted. Each surfaced tool call is executed
// through the dispatcher and its result appended to the conversation before
// the next round.
func (e *Engine) toolLoop(ctx context.Context, turn Turn, systemPrompt string, messages []core.Message, tools []core.ToolDefinition, result *TurnResult) (*core.SyncResponse, error) {
	req := core.ChatRequest{
		Messages:     messages,
		SystemPrompt: systemPrompt,
		Tools:        tools,
	}

	for round := 0; ; round++ {
		started := time.Now()
		resp, err := e.provider.SyncChat(ctx, req)
		logging.ProviderCall(e.Logger(), e.provider.Name(), usageTokens(resp), time.Since(started), err)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", e.provider.Name(), err)
		}
		if len(resp.ToolCalls) == 0 || round >= e.cfg.MaxToolRounds {
			return resp, nil
		}

		if resp.Content != "" {
			req.Messages = append(req.Messages, core.Message{Role: core.RoleAssistant, Content: resp.Content})
		}
		for _, call := range resp.ToolCalls {
			output := e.dispatcher.ExecuteToolCall(ctx, call.Name, call.InputString(), e.provider, systemPrompt)
			result.SkillsInvoked = append(result.SkillsInvoked, call.Name)
			req.Messages = append(req.Messages, core.Message{
				Role:    core.RoleUser,
				Content: fmt.Sprintf("Result of the %q skill: %s", call.Name, output),
			})
		}
	}
}

// streamFinal relays the resolved answer as deltas. The provider already
// produced the content during the tool loop, so the relay emits it directly
// instead of paying for another round-trip.
func (e *Engine) streamFinal(ctx context.Context, resp *core.SyncResponse, onEvent func(core.StreamEvent)) error {
	if ctx.Err() != nil {
		return nil
	}
	if resp.Content != "" {
		onEvent(core.TextDelta(resp.Content))
	}
	if ctx.Err() != nil {
		return nil
	}
	onEvent(core.MessageStop())
	return nil
}

// historyMessages loads the session's conversation buffer; a failing
// short-term tier degrades to an empty history.
func (e *Engine) historyMessages(ctx context.Context, turn Turn) []core.Message {
	if e.shortTerm == nil {
		return nil
	}
	buffer, err := e.shortTerm.ConversationBuffer(ctx, turn.TenantID, turn.SessionID)
	if err != nil {
		e.LogWarn("conversation buffer unavailable, starting empty", "tenant_id", turn.TenantID, "error", err)
		return nil
	}
	messages := make([]core.Message, 0, len(buffer))
	for _, entry := range buffer {
		messages = append(messages, core.Message{Role: entry.Role, Content: entry.Content})
	}
	return messages
}

// writeBack appends the turn to the conversation buffer and records a
// best-effort episode. Neither write may fail the turn.
func (e *Engine) writeBack(ctx context.Context, turn Turn, personaID, content string) {
	now := time.Now().UTC()
	if e.shortTerm != nil {
		entries := []core.ConversationBufferEntry{
			{Role: core.RoleUser, Content: turn.Message, Timestamp: now},
			{Role: core.RoleAssistant, Content: content, Timestamp: now},
		}
		for _, entry := range entries {
			if err := e.shortTerm.UpdateConversationBuffer(ctx, turn.TenantID, turn.SessionID, entry, e.cfg.BufferMaxMessages); err != nil {
				e.LogWarn("conversation buffer write dropped", "tenant_id", turn.TenantID, "error", err)
				break
			}
		}
	}
	if e.coordinator != nil {
		e.coordinator.RecordEpisode(ctx, turn.TenantID, turn.UserID, "conversation", summarize(turn.Message), map[string]any{
			"persona":    personaID,
			"session_id": turn.SessionID,
		})
	}
}

func usageTokens(resp *core.SyncResponse) int {
	if resp == nil || resp.Usage == nil {
		return 0
	}
	return resp.Usage.InputTokens + resp.Usage.OutputTokens
}

func summarize(message string) string {
	const max = 120
	if len(message) <= max {
		return message
	}
	return message[:max] + "..."
}
