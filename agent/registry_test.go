package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetKnownPersona(t *testing.T) {
	r := NewRegistry()

	p := r.Get(PersonaCoder)
	assert.Equal(t, PersonaCoder, p.ID)
	assert.NotEmpty(t, p.SystemPrompt)
	assert.Contains(t, p.AllowedTools, "calculator")
}

func TestRegistry_UnknownIDFallsBackToGeneral(t *testing.T) {
	r := NewRegistry()

	p := r.Get("no-such-persona")
	assert.Equal(t, PersonaGeneral, p.ID)
	assert.False(t, r.Has("no-such-persona"))
}

func TestRegistry_RouterIDsAllRegistered(t *testing.T) {
	r := NewRegistry()

	// Every persona the default routing table can select must resolve to a
	// registry entry of the same id.
	for _, g := range defaultRoutingTable {
		require.True(t, r.Has(g.Persona), "router persona %q missing from registry", g.Persona)
	}
}

func TestRegistry_IDsStable(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{PersonaGeneral, PersonaResearcher, PersonaCoder, PersonaPlanner, PersonaSupport}, r.IDs())
}
