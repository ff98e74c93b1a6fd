// Package testutil provides small helpers shared by package tests: a
// temp-file SQLite database and a fluent episode builder.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/memory"
)

// OpenDB opens a migrated SQLite database in a per-test temp directory and
// closes it on cleanup. A file-backed database avoids the per-connection
// isolation of ":memory:" under database/sql pooling.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := memory.OpenDB(filepath.Join(t.TempDir(), "loom_test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// EpisodeBuilder accumulates episode fields for readable test setup.
type EpisodeBuilder struct {
	episode core.Episode
}

// NewEpisode starts a builder with the given event type and summary.
func NewEpisode(eventType, summary string) *EpisodeBuilder {
	return &EpisodeBuilder{episode: core.Episode{EventType: eventType, Summary: summary}}
}

// Actor sets the actor id.
func (b *EpisodeBuilder) Actor(actorID string) *EpisodeBuilder {
	b.episode.ActorID = actorID
	return b
}

// Importance sets the importance score.
func (b *EpisodeBuilder) Importance(v float64) *EpisodeBuilder {
	b.episode.Importance = v
	return b
}

// OccurredAt sets the event timestamp.
func (b *EpisodeBuilder) OccurredAt(ts time.Time) *EpisodeBuilder {
	b.episode.OccurredAt = ts
	return b
}

// Build returns the accumulated episode.
func (b *EpisodeBuilder) Build() core.Episode {
	return b.episode
}
