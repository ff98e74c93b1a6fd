package memory

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/core"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "loom_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProfileStore_LazyCreate(t *testing.T) {
	s := NewSQLiteProfileStore(openTestDB(t))
	ctx := context.Background()

	p, err := s.Get(ctx, "t1", "user", "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "user", p.EntityType)
	assert.Equal(t, "u1", p.EntityID)
	assert.Empty(t, p.ProfileData)
	assert.Empty(t, p.Preferences)
	assert.False(t, p.UpdatedAt.IsZero())

	// Second read returns the same row, not a fresh one.
	again, err := s.Get(ctx, "t1", "user", "u1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
}

func TestProfileStore_DisjointKeysUnion(t *testing.T) {
	s := NewSQLiteProfileStore(openTestDB(t))
	ctx := context.Background()

	_, err := s.Update(ctx, "t1", "user", "u1", core.ProfilePatch{
		ProfileData: map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)

	p, err := s.Update(ctx, "t1", "user", "u1", core.ProfilePatch{
		ProfileData: map[string]any{"city": "London"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada", p.ProfileData["name"])
	assert.Equal(t, "London", p.ProfileData["city"])
}

func TestProfileStore_OverlappingKeyFullyReplaced(t *testing.T) {
	s := NewSQLiteProfileStore(openTestDB(t))
	ctx := context.Background()

	_, err := s.Update(ctx, "t1", "user", "u1", core.ProfilePatch{
		ProfileData: map[string]any{
			"address": map[string]any{"city": "London", "zip": "E1"},
		},
	})
	require.NoError(t, err)

	p, err := s.Update(ctx, "t1", "user", "u1", core.ProfilePatch{
		ProfileData: map[string]any{
			"address": map[string]any{"city": "Paris"},
		},
	})
	require.NoError(t, err)

	// Top-level key replaced wholesale: the nested zip must be gone.
	address, ok := p.ProfileData["address"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Paris", address["city"])
	assert.NotContains(t, address, "zip")
}

func TestProfileStore_TenantIsolation(t *testing.T) {
	s := NewSQLiteProfileStore(openTestDB(t))
	ctx := context.Background()

	_, err := s.Update(ctx, "t1", "user", "u1", core.ProfilePatch{
		Preferences: map[string]any{"theme": "dark"},
	})
	require.NoError(t, err)

	p, err := s.Get(ctx, "t2", "user", "u1")
	require.NoError(t, err)
	assert.Empty(t, p.Preferences)
}
