package loom

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/engine"
	"github.com/loomhq/loom/model"
)

func newTestLoom(t *testing.T) *Loom {
	t.Helper()
	provider := model.NewMockProvider("mock")
	provider.AddResponse("hello", "hi from loom")

	l, err := New(func(o *Options) {
		o.Provider = provider
		o.DBPath = filepath.Join(t.TempDir(), "loom.db")
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestNew_RequiresProvider(t *testing.T) {
	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider is required")
}

func TestLoom_RunTurnEndToEnd(t *testing.T) {
	l := newTestLoom(t)
	ctx := context.Background()

	result, err := l.RunTurn(ctx, engine.Turn{
		TenantID:  "t1",
		UserID:    "u1",
		SessionID: "s1",
		Message:   "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "general", result.PersonaID)
	assert.Equal(t, "hi from loom", result.Content)

	// The turn is recorded as an episode, so context assembly now has a
	// recent-activity section for this user.
	got := l.GetRelevantContext(ctx, "t1", "u1", "hello")
	assert.Contains(t, got, "Recent activity:")
	assert.Contains(t, got, "hello")
}

func TestLoom_MemoryTierAccessors(t *testing.T) {
	l := newTestLoom(t)
	ctx := context.Background()

	profile, err := l.Profiles().Get(ctx, "t1", "user", "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)

	require.NoError(t, l.LongTerm().Store(ctx, "t1", "fact", "likes sqlite"))
	records, err := l.LongTerm().Search(ctx, "t1", "sqlite", 5)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoom_ClearSessionMemory(t *testing.T) {
	l := newTestLoom(t)
	ctx := context.Background()

	_, err := l.RunTurn(ctx, engine.Turn{TenantID: "t1", SessionID: "s1", Message: "hello"})
	require.NoError(t, err)

	require.NoError(t, l.ClearSessionMemory(ctx, "t1", "s1"))

	result, err := l.RunTurn(ctx, engine.Turn{TenantID: "t1", SessionID: "s1", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi from loom", result.Content)
}
