package agent

import (
	"regexp"
	"strings"
)

// PatternGroup associates a persona id with the phrase patterns that vote for
// it. Patterns are case-insensitive whole-word regular expressions; each
// pattern contributes at most one point to the group's score per message.
type PatternGroup struct {
	Persona  string
	Patterns []*regexp.Regexp
}

// Router classifies free text onto a persona id by scoring pattern groups in
// declaration order. It holds only the compiled, read-only pattern table and
// is safe for concurrent use.
type Router struct {
	groups []PatternGroup
}

// NewRouter builds a router over the given groups. Group order is the
// tie-break order: a later group must score strictly higher to win.
func NewRouter(groups ...PatternGroup) *Router {
	return &Router{groups: groups}
}

// DefaultRouter returns a router over the built-in routing table, matching
// the built-in persona set.
func DefaultRouter() *Router {
	return NewRouter(defaultRoutingTable...)
}

// Route returns the persona id whose group scores strictly highest on the
// message. Messages matching no pattern route to the general persona.
func (r *Router) Route(message string) string {
	best := PersonaGeneral
	bestScore := 0
	for _, g := range r.groups {
		score := 0
		for _, p := range g.Patterns {
			if p.MatchString(message) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = g.Persona
		}
	}
	return best
}

// wordPatterns compiles each phrase into a case-insensitive whole-word match.
func wordPatterns(phrases ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, phrase := range phrases {
		parts := strings.Fields(phrase)
		for i, part := range parts {
			parts[i] = regexp.QuoteMeta(part)
		}
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+strings.Join(parts, `\s+`)+`\b`))
	}
	return patterns
}

var defaultRoutingTable = []PatternGroup{
	{
		Persona: PersonaResearcher,
		Patterns: wordPatterns(
			"search", "look up", "research", "find information",
			"latest news", "sources", "who wrote", "what is known about",
		),
	},
	{
		Persona: PersonaCoder,
		Patterns: wordPatterns(
			"code", "debug", "function", "compile", "stack trace",
			"error message", "refactor", "unit test",
		),
	},
	{
		Persona: PersonaPlanner,
		Patterns: wordPatterns(
			"schedule", "plan", "remind", "calendar", "appointment",
			"deadline", "itinerary", "to-do",
		),
	},
	{
		Persona: PersonaSupport,
		Patterns: wordPatterns(
			"help", "issue", "problem", "not working", "broken",
			"support", "refund", "cancel my",
		),
	},
}
