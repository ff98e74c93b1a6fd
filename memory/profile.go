package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loomhq/loom/core"
)

// SQLiteProfileStore is the durable core.ProfileStore. One row exists per
// (tenant, entityType, entityID); rows are created lazily on first read.
type SQLiteProfileStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ core.ProfileStore = (*SQLiteProfileStore)(nil)

// NewSQLiteProfileStore wraps an already-migrated database (see OpenDB).
func NewSQLiteProfileStore(db *sql.DB) *SQLiteProfileStore {
	return &SQLiteProfileStore{db: db, now: time.Now}
}

// Get returns the profile for the entity, inserting an empty one when none
// exists yet.
func (s *SQLiteProfileStore) Get(ctx context.Context, tenantID, entityType, entityID string) (*core.Profile, error) {
	profile, err := s.load(ctx, tenantID, entityType, entityID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	profile = &core.Profile{
		ID:          core.NewID(),
		EntityType:  entityType,
		EntityID:    entityID,
		ProfileData: map[string]any{},
		Preferences: map[string]any{},
		UpdatedAt:   s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, tenant_id, entity_type, entity_id, profile_data, preferences, updated_at)
		 VALUES (?, ?, ?, ?, '{}', '{}', ?)`,
		profile.ID, tenantID, entityType, entityID, profile.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// Update merges the patch into the stored profile at top-level-key
// granularity: a key present in the patch fully replaces the stored key,
// nested values are not merged, absent keys stay untouched.
func (s *SQLiteProfileStore) Update(ctx context.Context, tenantID, entityType, entityID string, patch core.ProfilePatch) (*core.Profile, error) {
	profile, err := s.Get(ctx, tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}

	for k, v := range patch.ProfileData {
		profile.ProfileData[k] = v
	}
	for k, v := range patch.Preferences {
		profile.Preferences[k] = v
	}
	profile.UpdatedAt = s.now().UTC()

	dataJSON, err := json.Marshal(profile.ProfileData)
	if err != nil {
		return nil, fmt.Errorf("marshal profile data: %w", err)
	}
	prefsJSON, err := json.Marshal(profile.Preferences)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE profiles SET profile_data = ?, preferences = ?, updated_at = ?
		 WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?`,
		string(dataJSON), string(prefsJSON), profile.UpdatedAt.UTC().Format(timeLayout),
		tenantID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

func (s *SQLiteProfileStore) load(ctx context.Context, tenantID, entityType, entityID string) (*core.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, entity_type, entity_id, profile_data, preferences, updated_at
		 FROM profiles WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?`,
		tenantID, entityType, entityID)

	var profile core.Profile
	var dataJSON, prefsJSON, updatedAt string
	if err := row.Scan(&profile.ID, &profile.EntityType, &profile.EntityID, &dataJSON, &prefsJSON, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(dataJSON), &profile.ProfileData); err != nil {
		return nil, fmt.Errorf("decode profile data: %w", err)
	}
	if err := json.Unmarshal([]byte(prefsJSON), &profile.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	ts, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	profile.UpdatedAt = ts
	return &profile, nil
}
