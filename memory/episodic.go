package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loomhq/loom/core"
)

// Timeline query parameters.
const (
	timelineMinImportance = 0.3
	timelineLimit         = 50
)

// SQLiteEpisodeStore is the durable core.EpisodicStore: append-only,
// tenant-scoped event records.
type SQLiteEpisodeStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.EpisodicStore = (*SQLiteEpisodeStore)(nil)

// NewSQLiteEpisodeStore wraps an already-migrated database (see OpenDB).
func NewSQLiteEpisodeStore(db *sql.DB) *SQLiteEpisodeStore {
	return &SQLiteEpisodeStore{db: db, now: time.Now}
}

// Record inserts the episode after filling defaults and clamping Importance
// into [0, 1].
func (s *SQLiteEpisodeStore) Record(ctx context.Context, tenantID string, episode core.Episode) (*core.Episode, error) {
	if episode.ID == "" {
		episode.ID = core.NewID()
	}
	if episode.ActorType == "" {
		episode.ActorType = "user"
	}
	if episode.Importance == 0 {
		episode.Importance = 0.5
	}
	episode.Importance = clamp01(episode.Importance)
	if episode.OccurredAt.IsZero() {
		episode.OccurredAt = s.now().UTC()
	}
	if episode.RelatedEntities == nil {
		episode.RelatedEntities = []string{}
	}

	var detailsJSON sql.NullString
	if episode.Details != nil {
		raw, err := json.Marshal(episode.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(raw), Valid: true}
	}
	entitiesJSON, err := json.Marshal(episode.RelatedEntities)
	if err != nil {
		return nil, fmt.Errorf("marshal related entities: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO episodes (id, tenant_id, actor_id, actor_type, event_type, summary, details, related_entities, importance, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.ID, tenantID, nullable(episode.ActorID), episode.ActorType, episode.EventType,
		episode.Summary, detailsJSON, string(entitiesJSON), episode.Importance,
		episode.OccurredAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	return &episode, nil
}

// Query returns episodes matching the filter ordered by occurred_at
// descending. The limit is clamped to min(requested or
// core.DefaultEpisodeLimit, core.MaxEpisodeLimit).
func (s *SQLiteEpisodeStore) Query(ctx context.Context, tenantID string, filter core.EpisodeFilter) ([]core.Episode, error) {
	query := `SELECT id, actor_id, actor_type, event_type, summary, details, related_entities, importance, occurred_at
		 FROM episodes WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, filter.ActorID)
	}
	if filter.EventType != "" {
		query += " AND event_type = ?"
		args = append(args, filter.EventType)
	}
	if !filter.Since.IsZero() {
		query += " AND occurred_at >= ?"
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	if !filter.Until.IsZero() {
		query += " AND occurred_at <= ?"
		args = append(args, filter.Until.UTC().Format(timeLayout))
	}
	if filter.MinImportance > 0 {
		query += " AND importance >= ?"
		args = append(args, filter.MinImportance)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = core.DefaultEpisodeLimit
	}
	if limit > core.MaxEpisodeLimit {
		limit = core.MaxEpisodeLimit
	}
	query += " ORDER BY occurred_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []core.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, *episode)
	}
	return episodes, rows.Err()
}

// Timeline returns the actor's recent important episodes: since = now - days,
// importance at least 0.3, at most 50 results.
func (s *SQLiteEpisodeStore) Timeline(ctx context.Context, tenantID, actorID string, days int) ([]core.Episode, error) {
	if days <= 0 {
		days = 7
	}
	return s.Query(ctx, tenantID, core.EpisodeFilter{
		ActorID:       actorID,
		Since:         s.now().Add(-time.Duration(days) * 24 * time.Hour),
		MinImportance: timelineMinImportance,
		Limit:         timelineLimit,
	})
}

func scanEpisode(rows *sql.Rows) (*core.Episode, error) {
	var episode core.Episode
	var actorID, detailsJSON sql.NullString
	var entitiesJSON, occurredAt string
	if err := rows.Scan(&episode.ID, &actorID, &episode.ActorType, &episode.EventType,
		&episode.Summary, &detailsJSON, &entitiesJSON, &episode.Importance, &occurredAt); err != nil {
		return nil, fmt.Errorf("scan episode: %w", err)
	}
	episode.ActorID = actorID.String
	if detailsJSON.Valid {
		if err := json.Unmarshal([]byte(detailsJSON.String), &episode.Details); err != nil {
			return nil, fmt.Errorf("decode details: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(entitiesJSON), &episode.RelatedEntities); err != nil {
		return nil, fmt.Errorf("decode related entities: %w", err)
	}
	ts, err := time.Parse(timeLayout, occurredAt)
	if err != nil {
		return nil, fmt.Errorf("decode occurred_at: %w", err)
	}
	episode.OccurredAt = ts
	return &episode, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
