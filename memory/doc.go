// Package memory implements the four memory tiers consumed by the
// orchestrator and the coordinator that merges them into one prompt-ready
// context string.
//
// Tiers:
//   - ShortTerm: volatile per-session key/value entries with independent TTLs,
//     including the rolling conversation buffer.
//   - SQLiteProfileStore: one durable profile row per (tenant, entity),
//     created lazily, updated by shallow top-level merge.
//   - SQLiteEpisodeStore: append-only, tenant-scoped event records with
//     filtered, importance-aware queries.
//   - InMemoryLongTerm: a process-local stand-in for the external ranked
//     search collaborator, sufficient for tests and local runs.
//
// The Coordinator fetches the profile, long-term and episodic tiers in
// parallel under independent failure boundaries: a failing tier contributes
// no section, it never aborts context assembly.
package memory
