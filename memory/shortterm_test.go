package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/core"
)

func TestShortTerm_SetGet(t *testing.T) {
	s := NewShortTerm()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "t1", "s1", "greeting", "hello", 0))

	value, ok, err := s.Get(ctx, "t1", "s1", "greeting")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", value)

	// Same key under another tenant is invisible.
	_, ok, err = s.Get(ctx, "t2", "s1", "greeting")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShortTerm_TTLExpiry(t *testing.T) {
	s := NewShortTerm()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "t1", "s1", "ephemeral", 42, 10*time.Second))

	now = now.Add(9 * time.Second)
	_, ok, err := s.Get(ctx, "t1", "s1", "ephemeral")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, err = s.Get(ctx, "t1", "s1", "ephemeral")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShortTerm_BufferTrimsToMax(t *testing.T) {
	s := NewShortTerm()
	ctx := context.Background()
	const maxMessages = 5

	for i := 0; i < maxMessages+3; i++ {
		entry := core.ConversationBufferEntry{
			Role:      core.RoleUser,
			Content:   fmt.Sprintf("message %d", i),
			Timestamp: time.Now(),
		}
		require.NoError(t, s.UpdateConversationBuffer(ctx, "t1", "s1", entry, maxMessages))
	}

	buffer, err := s.ConversationBuffer(ctx, "t1", "s1")
	require.NoError(t, err)
	require.Len(t, buffer, maxMessages)
	// Exactly the last maxMessages entries, in original relative order.
	for i, entry := range buffer {
		assert.Equal(t, fmt.Sprintf("message %d", i+3), entry.Content)
	}
}

func TestShortTerm_BufferTTLRefreshedOnAppend(t *testing.T) {
	s := NewShortTerm()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.UpdateConversationBuffer(ctx, "t1", "s1", core.ConversationBufferEntry{Content: "first"}, 0))

	// Just before expiry an append must reset the clock.
	now = now.Add(core.DefaultShortTermTTL - time.Minute)
	require.NoError(t, s.UpdateConversationBuffer(ctx, "t1", "s1", core.ConversationBufferEntry{Content: "second"}, 0))

	now = now.Add(30 * time.Minute)
	buffer, err := s.ConversationBuffer(ctx, "t1", "s1")
	require.NoError(t, err)
	assert.Len(t, buffer, 2)
}

func TestShortTerm_ClearSession(t *testing.T) {
	s := NewShortTerm()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "t1", "s1", "a", 1, 0))
	require.NoError(t, s.Set(ctx, "t1", "s1", "b", 2, 0))
	require.NoError(t, s.Set(ctx, "t1", "s2", "a", 3, 0))

	require.NoError(t, s.ClearSession(ctx, "t1", "s1"))

	_, ok, _ := s.Get(ctx, "t1", "s1", "a")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "t1", "s1", "b")
	assert.False(t, ok)

	// Sibling session untouched.
	_, ok, _ = s.Get(ctx, "t1", "s2", "a")
	assert.True(t, ok)
}
