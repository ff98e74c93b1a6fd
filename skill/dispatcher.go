// Package skill implements the tool-calling subsystem: a registry mapping
// skill ids to local handlers, tool-definition generation for the model, and
// a dispatch boundary that absorbs every failure into conversation text so a
// broken tool can never abort a turn.
package skill

import (
	"context"
	"fmt"
	"time"

	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/logging"
	"github.com/loomhq/loom/model"
)

// HandlerFunc executes a skill against its single string input. Returned
// errors are absorbed at the dispatch boundary; skill-internal faults
// (malformed input, upstream failures) should instead be rendered into the
// returned string as "Error: ..." per the error taxonomy.
type HandlerFunc func(ctx context.Context, input string) (string, error)

// Skill pairs an id with its description and local handler.
type Skill struct {
	ID          string
	Description string
	Handler     HandlerFunc
}

// Dispatcher routes model-issued tool calls to local handlers, falling back
// to a provider re-prompt for advertised-but-unimplemented skills. The skill
// table is populated at construction and immutable afterwards, so dispatch is
// safe for concurrent use.
type Dispatcher struct {
	*core.LoggerAdapter
	skills map[string]Skill
}

// DispatcherOptions configures dispatcher construction.
type DispatcherOptions struct {
	Logger logging.Logger
	// SearchAPIKey gates the web_search skill; empty means the skill returns
	// its unconfigured placeholder.
	SearchAPIKey string
	// SearchFunc optionally supplies the external search integration used by
	// web_search when a credential is present.
	SearchFunc SearchFunc
	// ExtraSkills are registered after the built-ins and may override them.
	ExtraSkills []Skill
}

// NewDispatcher builds a dispatcher with the built-in skills (calculator,
// http_request, web_search) plus any extras.
func NewDispatcher(optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	d := &Dispatcher{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		skills:        make(map[string]Skill),
	}
	for _, s := range []Skill{
		Calculator(),
		HTTPRequest(),
		WebSearch(opts.SearchAPIKey, opts.SearchFunc),
	} {
		d.skills[s.ID] = s
	}
	for _, s := range opts.ExtraSkills {
		d.skills[s.ID] = s
	}
	return d
}

// BuildToolDefinitions maps each skill id to one tool definition with a
// single required string field. All skills share this schema shape
// regardless of their actual parameter needs; the simplification keeps the
// model-facing surface uniform.
func (d *Dispatcher) BuildToolDefinitions(skillIDs []string) []core.ToolDefinition {
	defs := make([]core.ToolDefinition, 0, len(skillIDs))
	for _, id := range skillIDs {
		description := fmt.Sprintf("Execute the %s skill", id)
		if s, ok := d.skills[id]; ok && s.Description != "" {
			description = s.Description
		}
		defs = append(defs, core.ToolDefinition{
			Name:        id,
			Description: description,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input": map[string]any{
						"type":        "string",
						"description": "Input for the skill",
					},
				},
				"required": []string{"input"},
			},
		})
	}
	return defs
}

// Has reports whether a local handler is registered for the skill id.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.skills[name]
	return ok
}

// ExecuteToolCall runs the named skill and always returns conversation text,
// never an error: handler failures and panics are rendered as
// "Error executing {name}: {message}". A call to a skill with no local
// handler falls back to re-prompting the same provider to emulate it, a
// degraded path whose output is returned verbatim.
func (d *Dispatcher) ExecuteToolCall(ctx context.Context, name, input string, provider model.Provider, systemPrompt string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = fmt.Sprintf("Error executing %s: %v", name, r)
		}
	}()

	s, ok := d.skills[name]
	if !ok {
		return d.emulateSkill(ctx, name, input, provider, systemPrompt)
	}

	start := time.Now()
	out, err := s.Handler(ctx, input)
	logging.SkillCall(d.Logger(), name, time.Since(start), err)
	if err != nil {
		return fmt.Sprintf("Error executing %s: %s", name, err.Error())
	}
	return out
}

// emulateSkill asks the provider to stand in for an unimplemented skill.
func (d *Dispatcher) emulateSkill(ctx context.Context, name, input string, provider model.Provider, systemPrompt string) string {
	if provider == nil {
		return fmt.Sprintf("Error executing %s: no handler registered and no provider for fallback", name)
	}
	d.LogDebug("no local handler, falling back to provider emulation", "skill", name)

	prompt := systemPrompt
	if prompt != "" {
		prompt += "\n\n"
	}
	prompt += fmt.Sprintf("The %q skill has no local implementation. Produce the most plausible output of that skill directly, with no commentary about the emulation.", name)

	resp, err := provider.SyncChat(ctx, core.ChatRequest{
		Messages: []core.Message{{
			Role:    core.RoleUser,
			Content: fmt.Sprintf("Execute the %q skill with this input: %s", name, input),
		}},
		SystemPrompt: prompt,
	})
	if err != nil {
		return fmt.Sprintf("Error executing %s: %s", name, err.Error())
	}
	return resp.Content
}
