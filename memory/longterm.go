package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/loomhq/loom/core"
)

type longTermRecord struct {
	id       string
	category string
	content  string
}

// InMemoryLongTerm is a process-local stand-in for the external long-term
// search collaborator. Ranking is naive: one point per query term contained
// in the record's content, ties broken by insertion order. Suitable for
// tests and local runs; production deployments inject the real collaborator
// behind core.LongTermStore.
type InMemoryLongTerm struct {
	mu      sync.RWMutex
	records map[string][]longTermRecord // tenantID -> records in insertion order
}

var _ core.LongTermStore = (*InMemoryLongTerm)(nil)

// NewInMemoryLongTerm creates an empty store.
func NewInMemoryLongTerm() *InMemoryLongTerm {
	return &InMemoryLongTerm{records: make(map[string][]longTermRecord)}
}

// Search returns up to limit records ranked by how many query terms their
// content contains. Records matching no term are excluded.
func (m *InMemoryLongTerm) Search(_ context.Context, tenantID, query string, limit int) ([]core.LongTermRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	terms := strings.Fields(strings.ToLower(query))

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		record longTermRecord
		score  int
		order  int
	}
	var hits []scored
	for i, rec := range m.records[tenantID] {
		score := 0
		content := strings.ToLower(rec.content)
		for _, term := range terms {
			if strings.Contains(content, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{record: rec, score: score, order: i})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]core.LongTermRecord, len(hits))
	for i, h := range hits {
		results[i] = core.LongTermRecord{Category: h.record.category, Content: h.record.content}
	}
	return results, nil
}

// Store appends a record for the tenant.
func (m *InMemoryLongTerm) Store(_ context.Context, tenantID, category, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[tenantID] = append(m.records[tenantID], longTermRecord{
		id:       core.NewID(),
		category: category,
		content:  content,
	})
	return nil
}

// Delete removes a record by id.
func (m *InMemoryLongTerm) Delete(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.records[tenantID]
	for i, rec := range records {
		if rec.id == id {
			m.records[tenantID] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("long-term record %q not found", id)
}
