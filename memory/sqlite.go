package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// timeLayout is a fixed-width UTC timestamp encoding for TEXT columns.
// RFC3339Nano drops trailing fractional zeros, which breaks lexicographic
// comparison at sub-second boundaries ("...00Z" sorts after "...00.5Z"); a
// constant nine fractional digits keeps string order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// OpenDB opens or creates the SQLite database backing the durable tiers and
// applies the schema. WAL mode keeps readers unblocked during writes.
func OpenDB(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		id           TEXT PRIMARY KEY,
		tenant_id    TEXT NOT NULL,
		entity_type  TEXT NOT NULL,
		entity_id    TEXT NOT NULL,
		profile_data TEXT NOT NULL DEFAULT '{}',
		preferences  TEXT NOT NULL DEFAULT '{}',
		updated_at   TEXT NOT NULL,
		UNIQUE (tenant_id, entity_type, entity_id)
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_tenant ON profiles(tenant_id);

	CREATE TABLE IF NOT EXISTS episodes (
		id               TEXT PRIMARY KEY,
		tenant_id        TEXT NOT NULL,
		actor_id         TEXT,
		actor_type       TEXT NOT NULL DEFAULT 'user',
		event_type       TEXT NOT NULL,
		summary          TEXT NOT NULL,
		details          TEXT,
		related_entities TEXT NOT NULL DEFAULT '[]',
		importance       REAL NOT NULL DEFAULT 0.5,
		occurred_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_episodes_tenant_occurred ON episodes(tenant_id, occurred_at DESC);
	CREATE INDEX IF NOT EXISTS idx_episodes_tenant_actor ON episodes(tenant_id, actor_id);
	CREATE INDEX IF NOT EXISTS idx_episodes_tenant_event ON episodes(tenant_id, event_type);
	`
	_, err := db.Exec(schema)
	return err
}
