package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_NoMatchReturnsGeneral(t *testing.T) {
	r := DefaultRouter()

	tests := []string{
		"hello there",
		"tell me a joke",
		"",
		"¿qué tal?",
	}
	for _, message := range tests {
		assert.Equal(t, PersonaGeneral, r.Route(message), "message %q", message)
	}
}

func TestRoute_SelectsHighestScoringGroup(t *testing.T) {
	r := DefaultRouter()

	// Two coder patterns vs one researcher pattern.
	got := r.Route("please debug this function, the search can wait")
	assert.Equal(t, PersonaCoder, got)

	got = r.Route("schedule an appointment before the deadline")
	assert.Equal(t, PersonaPlanner, got)
}

func TestRoute_TieBreaksByDeclarationOrder(t *testing.T) {
	r := NewRouter(
		PatternGroup{Persona: "first", Patterns: wordPatterns("alpha", "beta")},
		PatternGroup{Persona: "second", Patterns: wordPatterns("gamma", "delta")},
	)

	// One pattern from each group matches; the earlier group must win
	// because a later group needs a strictly greater score.
	assert.Equal(t, "first", r.Route("alpha and gamma"))
	assert.Equal(t, "first", r.Route("beta delta"))

	// A strictly higher score in the later group overrides declaration order.
	assert.Equal(t, "second", r.Route("alpha gamma delta"))
}

func TestRoute_CaseInsensitiveWholeWords(t *testing.T) {
	r := DefaultRouter()

	assert.Equal(t, PersonaResearcher, r.Route("RESEARCH the topic"))
	// "searching" must not match the whole-word pattern "search".
	assert.Equal(t, PersonaGeneral, r.Route("searching"))
}

func TestRoute_PatternCountsOncePerMessage(t *testing.T) {
	r := NewRouter(
		PatternGroup{Persona: "repeat", Patterns: wordPatterns("echo")},
		PatternGroup{Persona: "pair", Patterns: wordPatterns("ping", "pong")},
	)

	// "echo" occurring three times still scores 1; the two distinct pair
	// patterns score 2.
	assert.Equal(t, "pair", r.Route("echo echo echo ping pong"))
}
