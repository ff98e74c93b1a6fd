package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/core"
)

type stubProfiles struct {
	profile *core.Profile
	err     error
}

func (s *stubProfiles) Get(context.Context, string, string, string) (*core.Profile, error) {
	return s.profile, s.err
}

func (s *stubProfiles) Update(context.Context, string, string, string, core.ProfilePatch) (*core.Profile, error) {
	return s.profile, s.err
}

type stubLongTerm struct {
	records []core.LongTermRecord
	err     error
}

func (s *stubLongTerm) Search(context.Context, string, string, int) ([]core.LongTermRecord, error) {
	return s.records, s.err
}

func (s *stubLongTerm) Store(context.Context, string, string, string) error { return s.err }
func (s *stubLongTerm) Delete(context.Context, string, string) error        { return s.err }

type stubEpisodes struct {
	episodes  []core.Episode
	err       error
	recorded  []core.Episode
	recordErr error
}

func (s *stubEpisodes) Record(_ context.Context, _ string, ep core.Episode) (*core.Episode, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	s.recorded = append(s.recorded, ep)
	return &ep, nil
}

func (s *stubEpisodes) Query(context.Context, string, core.EpisodeFilter) ([]core.Episode, error) {
	return s.episodes, s.err
}

func (s *stubEpisodes) Timeline(context.Context, string, string, int) ([]core.Episode, error) {
	return s.episodes, s.err
}

func TestCoordinator_RelevantContextSectionOrder(t *testing.T) {
	c := NewCoordinator(
		&stubProfiles{profile: &core.Profile{
			ProfileData: map[string]any{"name": "Dana"},
			Preferences: map[string]any{"tone": "concise"},
		}},
		&stubLongTerm{records: []core.LongTermRecord{{Category: "fact", Content: "prefers Go"}}},
		&stubEpisodes{episodes: []core.Episode{{EventType: "conversation", Summary: "asked about channels"}}},
	)

	got := c.RelevantContext(context.Background(), "t1", "u1", "channels")

	require.NotEmpty(t, got)
	sections := strings.Split(got, "\n\n")
	require.Len(t, sections, 3)
	assert.Equal(t, "User profile:\n- name: Dana\n- tone: concise", sections[0])
	assert.Equal(t, "Relevant memories:\n- [fact] prefers Go", sections[1])
	assert.Equal(t, "Recent activity:\n- (conversation) asked about channels", sections[2])
}

func TestCoordinator_FailedTierOmitsOnlyItsSection(t *testing.T) {
	c := NewCoordinator(
		&stubProfiles{profile: &core.Profile{ProfileData: map[string]any{"name": "Dana"}}},
		&stubLongTerm{err: errors.New("search backend down")},
		&stubEpisodes{episodes: []core.Episode{{EventType: "skill_call", Summary: "ran calculator"}}},
	)

	got := c.RelevantContext(context.Background(), "t1", "u1", "math")

	assert.Contains(t, got, "User profile:")
	assert.Contains(t, got, "Recent activity:")
	assert.NotContains(t, got, "Relevant memories:")
}

type tierLogCapture struct {
	warns  []string
	debugs []string
}

func (c *tierLogCapture) Debug(msg string, _ ...any) { c.debugs = append(c.debugs, msg) }
func (c *tierLogCapture) Info(string, ...any)        {}
func (c *tierLogCapture) Warn(msg string, _ ...any)  { c.warns = append(c.warns, msg) }
func (c *tierLogCapture) Error(string, ...any)       {}

func TestCoordinator_LogsTierOutcomes(t *testing.T) {
	logger := &tierLogCapture{}
	c := NewCoordinator(
		&stubProfiles{profile: &core.Profile{ProfileData: map[string]any{"name": "Dana"}}},
		&stubLongTerm{err: errors.New("search backend down")},
		&stubEpisodes{},
		func(o *CoordinatorOptions) { o.Logger = logger },
	)

	c.RelevantContext(context.Background(), "t1", "u1", "q")

	assert.Contains(t, logger.warns, "memory tier fetch failed, omitting section")
	assert.Contains(t, logger.debugs, "memory tier fetched")
}

func TestCoordinator_EmptyTiersYieldEmptyContext(t *testing.T) {
	c := NewCoordinator(
		&stubProfiles{profile: &core.Profile{}},
		&stubLongTerm{},
		&stubEpisodes{},
	)

	assert.Empty(t, c.RelevantContext(context.Background(), "t1", "u1", "anything"))
}

func TestCoordinator_NilStoresAreSkipped(t *testing.T) {
	c := NewCoordinator(nil, nil, nil)
	assert.Empty(t, c.RelevantContext(context.Background(), "t1", "u1", "q"))
	// No episodic store means RecordEpisode is a no-op rather than a panic.
	c.RecordEpisode(context.Background(), "t1", "u1", "conversation", "hello", nil)
}

func TestCoordinator_RecordEpisodeSwallowsErrors(t *testing.T) {
	episodes := &stubEpisodes{recordErr: errors.New("disk full")}
	c := NewCoordinator(nil, nil, episodes)

	c.RecordEpisode(context.Background(), "t1", "u1", "conversation", "hello", map[string]any{"k": "v"})
	assert.Empty(t, episodes.recorded)

	episodes.recordErr = nil
	c.RecordEpisode(context.Background(), "t1", "u1", "conversation", "hello again", nil)
	require.Len(t, episodes.recorded, 1)
	assert.Equal(t, "u1", episodes.recorded[0].ActorID)
	assert.Equal(t, "conversation", episodes.recorded[0].EventType)
}

func TestCoordinator_EpisodeQueryWindow(t *testing.T) {
	var gotFilter core.EpisodeFilter
	episodes := &captureEpisodes{onQuery: func(f core.EpisodeFilter) { gotFilter = f }}
	c := NewCoordinator(nil, nil, episodes)
	fixed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	c.RelevantContext(context.Background(), "t1", "u1", "q")

	assert.Equal(t, "u1", gotFilter.ActorID)
	assert.Equal(t, fixed.Add(-24*time.Hour), gotFilter.Since)
	assert.Equal(t, 5, gotFilter.Limit)
}

type captureEpisodes struct {
	onQuery func(core.EpisodeFilter)
}

func (c *captureEpisodes) Record(_ context.Context, _ string, ep core.Episode) (*core.Episode, error) {
	return &ep, nil
}

func (c *captureEpisodes) Query(_ context.Context, _ string, f core.EpisodeFilter) ([]core.Episode, error) {
	c.onQuery(f)
	return nil, nil
}

func (c *captureEpisodes) Timeline(context.Context, string, string, int) ([]core.Episode, error) {
	return nil, nil
}
