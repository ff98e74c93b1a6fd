package core

import (
	"context"
	"time"
)

// Defaults and bounds shared by the memory tier implementations.
const (
	// DefaultShortTermTTL is applied to short-term entries stored without an
	// explicit TTL.
	DefaultShortTermTTL = time.Hour
	// DefaultBufferMaxMessages caps the per-session conversation buffer.
	DefaultBufferMaxMessages = 20
	// DefaultEpisodeLimit is used when an episode query requests no limit.
	DefaultEpisodeLimit = 20
	// MaxEpisodeLimit is the hard cap any episode query is clamped to.
	MaxEpisodeLimit = 100
)

// ConversationBufferEntry is one message of a session's rolling buffer.
type ConversationBufferEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ShortTermStore is the volatile key-value tier. Every key lives under a
// (tenantID, sessionID) namespace and expires independently.
type ShortTermStore interface {
	// Set stores value under key with the given TTL (DefaultShortTermTTL when
	// ttl <= 0).
	Set(ctx context.Context, tenantID, sessionID, key string, value any, ttl time.Duration) error

	// Get returns the stored value and whether a live (unexpired) entry exists.
	Get(ctx context.Context, tenantID, sessionID, key string) (any, bool, error)

	// UpdateConversationBuffer appends entry to the session's buffer, trims it
	// to the most recent maxMessages entries (DefaultBufferMaxMessages when
	// maxMessages <= 0) and refreshes the buffer's TTL. The three steps are not
	// atomic as a unit; a transiently over-length buffer self-corrects on the
	// next append.
	UpdateConversationBuffer(ctx context.Context, tenantID, sessionID string, entry ConversationBufferEntry, maxMessages int) error

	// ConversationBuffer returns the session's buffer in append order.
	ConversationBuffer(ctx context.Context, tenantID, sessionID string) ([]ConversationBufferEntry, error)

	// ClearSession deletes every key under the session's namespace.
	ClearSession(ctx context.Context, tenantID, sessionID string) error
}

// Profile is one row per (tenant, entityType, entityID), created lazily on
// first read.
type Profile struct {
	ID          string         `json:"id"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	ProfileData map[string]any `json:"profile_data"`
	Preferences map[string]any `json:"preferences"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProfilePatch carries the top-level keys to merge into a stored profile.
// Keys present fully replace the stored top-level key; absent keys are untouched.
type ProfilePatch struct {
	ProfileData map[string]any `json:"profile_data,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// ProfileStore is the durable per-entity profile tier.
type ProfileStore interface {
	// Get returns the existing profile or lazily creates an empty one.
	Get(ctx context.Context, tenantID, entityType, entityID string) (*Profile, error)

	// Update applies a shallow top-level-key merge and returns the result.
	Update(ctx context.Context, tenantID, entityType, entityID string, patch ProfilePatch) (*Profile, error)
}

// Episode is one append-only, tenant-scoped event record.
type Episode struct {
	ID              string         `json:"id"`
	ActorID         string         `json:"actor_id,omitempty"`
	ActorType       string         `json:"actor_type"`
	EventType       string         `json:"event_type"`
	Summary         string         `json:"summary"`
	Details         map[string]any `json:"details,omitempty"`
	RelatedEntities []string       `json:"related_entities"`
	Importance      float64        `json:"importance"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// EpisodeFilter narrows an episode query. Zero values mean "no filter".
type EpisodeFilter struct {
	ActorID       string
	EventType     string
	Since         time.Time
	Until         time.Time
	MinImportance float64
	Limit         int
}

// EpisodicStore is the append-only event tier.
type EpisodicStore interface {
	// Record inserts an episode, filling defaults (ActorType "user",
	// Importance 0.5, OccurredAt now, empty RelatedEntities) and clamping
	// Importance into [0, 1]. The stored episode is returned.
	Record(ctx context.Context, tenantID string, episode Episode) (*Episode, error)

	// Query returns episodes matching the filter ordered by OccurredAt
	// descending, limit clamped to min(requested or DefaultEpisodeLimit,
	// MaxEpisodeLimit).
	Query(ctx context.Context, tenantID string, filter EpisodeFilter) ([]Episode, error)

	// Timeline is a convenience query: since = now - days, minImportance 0.3,
	// limit 50.
	Timeline(ctx context.Context, tenantID, actorID string, days int) ([]Episode, error)
}

// LongTermRecord is a ranked search hit from the long-term tier.
type LongTermRecord struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

// LongTermStore is consumed, not owned, by this subsystem: an opaque ranked
// search capability plus fire-and-forget mutations. Ranking internals are the
// collaborator's concern.
type LongTermStore interface {
	Search(ctx context.Context, tenantID, query string, limit int) ([]LongTermRecord, error)
	Store(ctx context.Context, tenantID, category, content string) error
	Delete(ctx context.Context, tenantID, id string) error
}
