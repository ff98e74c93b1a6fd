package agent

// Persona ids. The router may only ever return ids declared here.
const (
	PersonaGeneral    = "general"
	PersonaResearcher = "researcher"
	PersonaCoder      = "coder"
	PersonaPlanner    = "planner"
	PersonaSupport    = "support"
)

// Persona is a constant agent configuration selected per turn. AllowedTools
// enumerates the skill ids surfaced to the model as tool definitions for this
// persona; it is an advisory allow-list used when building the definition
// list, not re-checked by the dispatcher at execution time.
type Persona struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	SystemPrompt string   `json:"system_prompt"`
	AllowedTools []string `json:"allowed_tools"`
}

// Registry holds the closed set of personas, keyed by id and immutable for
// the process lifetime.
type Registry struct {
	personas map[string]Persona
}

// NewRegistry constructs the registry with the built-in persona set.
func NewRegistry() *Registry {
	r := &Registry{personas: make(map[string]Persona, len(builtinPersonas))}
	for _, p := range builtinPersonas {
		r.personas[p.ID] = p
	}
	return r
}

// Get returns the persona for id, falling back to the general persona when
// the id is unknown. The router and registry are maintained independently, so
// a routing table extended ahead of the registry degrades to the default
// persona instead of failing the turn.
func (r *Registry) Get(id string) Persona {
	if p, ok := r.personas[id]; ok {
		return p
	}
	return r.personas[PersonaGeneral]
}

// Has reports whether a persona with the given id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.personas[id]
	return ok
}

// IDs returns the registered persona ids in declaration order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(builtinPersonas))
	for _, p := range builtinPersonas {
		ids = append(ids, p.ID)
	}
	return ids
}

var builtinPersonas = []Persona{
	{
		ID:          PersonaGeneral,
		Description: "General-purpose assistant for everyday conversation",
		SystemPrompt: "You are a helpful, concise assistant. Answer the user's question directly. " +
			"Use the available tools when they would produce a more accurate answer than recall.",
		AllowedTools: []string{"calculator", "http_request", "web_search"},
	},
	{
		ID:          PersonaResearcher,
		Description: "Research assistant focused on finding and summarizing information",
		SystemPrompt: "You are a research assistant. Ground every claim in retrieved information, " +
			"cite where a fact came from, and say so explicitly when you could not verify something.",
		AllowedTools: []string{"web_search", "http_request"},
	},
	{
		ID:          PersonaCoder,
		Description: "Software engineering assistant for code and debugging questions",
		SystemPrompt: "You are a software engineering assistant. Prefer small, working examples, " +
			"explain the root cause before the fix, and state assumptions about the user's environment.",
		AllowedTools: []string{"calculator", "http_request"},
	},
	{
		ID:          PersonaPlanner,
		Description: "Planning assistant for schedules, reminders and task breakdowns",
		SystemPrompt: "You are a planning assistant. Turn requests into concrete, ordered steps with " +
			"dates and durations where possible, and confirm ambiguous timing with the user.",
		AllowedTools: []string{"calculator"},
	},
	{
		ID:          PersonaSupport,
		Description: "Support assistant for troubleshooting product issues",
		SystemPrompt: "You are a support assistant. Ask for the minimum detail needed to reproduce an " +
			"issue, propose one fix at a time, and escalate clearly when a problem is out of scope.",
		AllowedTools: []string{"web_search"},
	},
}
