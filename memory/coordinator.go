package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/logging"
)

// Per-tier fetch parameters for context assembly.
const (
	longTermSearchLimit = 5
	episodeFetchLimit   = 5
	episodeWindow       = 24 * time.Hour
)

// Coordinator merges the profile, long-term and episodic tiers into one
// prompt-ready context string. Each tier fetch runs under an independent
// failure boundary: an erroring tier contributes no section and never aborts
// assembly. Output section order is fixed regardless of fetch timing.
type Coordinator struct {
	*core.LoggerAdapter
	profiles core.ProfileStore
	longTerm core.LongTermStore
	episodes core.EpisodicStore
	now      func() time.Time
}

// CoordinatorOptions configures optional Coordinator collaborators.
type CoordinatorOptions struct {
	Logger logging.Logger
}

// NewCoordinator wires the three read tiers. Any store may be nil, in which
// case its section is simply never produced.
func NewCoordinator(profiles core.ProfileStore, longTerm core.LongTermStore, episodes core.EpisodicStore, optFns ...func(o *CoordinatorOptions)) *Coordinator {
	opts := CoordinatorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coordinator{
		LoggerAdapter: core.NewLoggerAdapter(opts.Logger),
		profiles:      profiles,
		longTerm:      longTerm,
		episodes:      episodes,
		now:           time.Now,
	}
}

// RelevantContext assembles the context string for one turn: profile, then
// long-term matches for query, then the last 24h of episodes, joined with
// blank lines. Tiers are fetched concurrently; an empty or failed tier
// contributes no section, so the result may be "".
func (c *Coordinator) RelevantContext(ctx context.Context, tenantID, userID, query string) string {
	var sections [3]string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sections[0] = c.profileSection(gctx, tenantID, userID)
		return nil
	})
	g.Go(func() error {
		sections[1] = c.longTermSection(gctx, tenantID, query)
		return nil
	})
	g.Go(func() error {
		sections[2] = c.episodeSection(gctx, tenantID, userID)
		return nil
	})
	_ = g.Wait()

	var nonEmpty []string
	for _, s := range sections {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

// RecordEpisode is a best-effort write: failures are logged at debug level
// and never propagated. Episodic writes are at-most-once with no retry.
func (c *Coordinator) RecordEpisode(ctx context.Context, tenantID, actorID, eventType, summary string, details map[string]any) {
	if c.episodes == nil {
		return
	}
	_, err := c.episodes.Record(ctx, tenantID, core.Episode{
		ActorID:   actorID,
		EventType: eventType,
		Summary:   summary,
		Details:   details,
	})
	if err != nil {
		c.LogDebug("episode write dropped", "tenant_id", tenantID, "event_type", eventType, "error", err)
	}
}

func (c *Coordinator) profileSection(ctx context.Context, tenantID, userID string) string {
	if c.profiles == nil {
		return ""
	}
	start := c.now()
	profile, err := c.profiles.Get(ctx, tenantID, "user", userID)
	if err != nil {
		logging.TierFetch(c.Logger(), "profile", 0, time.Since(start), err)
		return ""
	}
	lines := formatKV(profile.ProfileData)
	lines = append(lines, formatKV(profile.Preferences)...)
	logging.TierFetch(c.Logger(), "profile", len(lines), time.Since(start), nil)
	if len(lines) == 0 {
		return ""
	}
	return "User profile:\n" + strings.Join(lines, "\n")
}

func (c *Coordinator) longTermSection(ctx context.Context, tenantID, query string) string {
	if c.longTerm == nil {
		return ""
	}
	start := c.now()
	records, err := c.longTerm.Search(ctx, tenantID, query, longTermSearchLimit)
	if err != nil {
		logging.TierFetch(c.Logger(), "long_term", 0, time.Since(start), err)
		return ""
	}
	logging.TierFetch(c.Logger(), "long_term", len(records), time.Since(start), nil)
	if len(records) == 0 {
		return ""
	}
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = fmt.Sprintf("- [%s] %s", rec.Category, rec.Content)
	}
	return "Relevant memories:\n" + strings.Join(lines, "\n")
}

func (c *Coordinator) episodeSection(ctx context.Context, tenantID, userID string) string {
	if c.episodes == nil {
		return ""
	}
	start := c.now()
	episodes, err := c.episodes.Query(ctx, tenantID, core.EpisodeFilter{
		ActorID: userID,
		Since:   start.Add(-episodeWindow),
		Limit:   episodeFetchLimit,
	})
	if err != nil {
		logging.TierFetch(c.Logger(), "episodic", 0, time.Since(start), err)
		return ""
	}
	logging.TierFetch(c.Logger(), "episodic", len(episodes), time.Since(start), nil)
	if len(episodes) == 0 {
		return ""
	}
	lines := make([]string, len(episodes))
	for i, ep := range episodes {
		lines[i] = fmt.Sprintf("- (%s) %s", ep.EventType, ep.Summary)
	}
	return "Recent activity:\n" + strings.Join(lines, "\n")
}

// formatKV renders a map as sorted "- key: value" lines for stable output.
func formatKV(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("- %s: %v", k, m[k])
	}
	return lines
}
