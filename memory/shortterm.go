package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/loomhq/loom/core"
)

// bufferKey is the reserved short-term key holding the session's
// conversation buffer.
const bufferKey = "conversation_buffer"

type shortTermEntry struct {
	value     any
	expiresAt time.Time
}

// ShortTerm is a process-local core.ShortTermStore. Entries live under a
// "short_term:tenant:session:key" namespace and expire independently; expired
// entries are dropped lazily on access.
//
// Concurrency: protected by a single RWMutex. Per-tenant isolation needs no
// locking beyond that since keys never cross tenant namespaces.
type ShortTerm struct {
	mu      sync.RWMutex
	entries map[string]shortTermEntry
	now     func() time.Time
}

var _ core.ShortTermStore = (*ShortTerm)(nil)

// NewShortTerm creates an empty short-term store.
func NewShortTerm() *ShortTerm {
	return &ShortTerm{entries: make(map[string]shortTermEntry), now: time.Now}
}

func namespacedKey(tenantID, sessionID, key string) string {
	return "short_term:" + tenantID + ":" + sessionID + ":" + key
}

// Set stores value under key with the given TTL (core.DefaultShortTermTTL
// when ttl <= 0).
func (s *ShortTerm) Set(_ context.Context, tenantID, sessionID, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = core.DefaultShortTermTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[namespacedKey(tenantID, sessionID, key)] = shortTermEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get returns the live value for key, dropping it when expired.
func (s *ShortTerm) Get(_ context.Context, tenantID, sessionID, key string) (any, bool, error) {
	nsKey := namespacedKey(tenantID, sessionID, key)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[nsKey]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, nsKey)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// UpdateConversationBuffer appends entry to the session's buffer, trims it to
// the most recent maxMessages entries keeping relative order, and refreshes
// the buffer's TTL. The steps are sequential, not atomic; an over-length
// buffer left by an interrupted call self-corrects on the next append.
func (s *ShortTerm) UpdateConversationBuffer(ctx context.Context, tenantID, sessionID string, entry core.ConversationBufferEntry, maxMessages int) error {
	if maxMessages <= 0 {
		maxMessages = core.DefaultBufferMaxMessages
	}
	buffer, err := s.ConversationBuffer(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}
	buffer = append(buffer, entry)
	if len(buffer) > maxMessages {
		buffer = buffer[len(buffer)-maxMessages:]
	}
	return s.Set(ctx, tenantID, sessionID, bufferKey, buffer, core.DefaultShortTermTTL)
}

// ConversationBuffer returns a copy of the session's buffer in append order.
func (s *ShortTerm) ConversationBuffer(ctx context.Context, tenantID, sessionID string) ([]core.ConversationBufferEntry, error) {
	value, ok, err := s.Get(ctx, tenantID, sessionID, bufferKey)
	if err != nil || !ok {
		return nil, err
	}
	buffer, ok := value.([]core.ConversationBufferEntry)
	if !ok {
		return nil, nil
	}
	out := make([]core.ConversationBufferEntry, len(buffer))
	copy(out, buffer)
	return out, nil
}

// ClearSession deletes every key under the session's namespace.
func (s *ShortTerm) ClearSession(_ context.Context, tenantID, sessionID string) error {
	prefix := namespacedKey(tenantID, sessionID, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}
