// Package loom provides a high-level façade over the turn engine and the
// memory, provider and skill services, enabling rapid construction of
// conversational agent backends. Most applications interact with this
// package by:
//  1. Creating a Loom via New() (optionally overriding default stores)
//  2. Running turns synchronously (RunTurn) or streaming (StreamTurn)
//  3. Reading or mutating memory through the exposed tier operations
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. Defaults are safe for local development and testing;
// production deployments supply a real long-term store and a structured
// logger.
package loom

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loomhq/loom/config"
	"github.com/loomhq/loom/core"
	"github.com/loomhq/loom/engine"
	"github.com/loomhq/loom/logging"
	"github.com/loomhq/loom/memory"
	"github.com/loomhq/loom/model"
	"github.com/loomhq/loom/skill"
)

// Options configures the Loom instance.
type Options struct {
	// EngineConfig tunes the turn loop (tool rounds, buffer cap).
	EngineConfig engine.Config

	// Provider is the LLM backend driving completions. Required.
	Provider model.Provider

	// DBPath locates the SQLite database backing the profile and episodic
	// tiers. Defaults to "loom.db" in the working directory.
	DBPath string

	// Stores (default to the built-in implementations if not provided).
	ShortTerm core.ShortTermStore
	Profiles  core.ProfileStore
	Episodes  core.EpisodicStore
	LongTerm  core.LongTermStore

	// Dispatcher overrides the built-in skill set when non-nil.
	Dispatcher *skill.Dispatcher

	// Logger defaults to NoOp when nil.
	Logger logging.Logger
}

// Loom aggregates the turn engine and the memory tiers behind one value.
type Loom struct {
	opts        Options
	engine      *engine.Engine
	coordinator *memory.Coordinator
	shortTerm   core.ShortTermStore
	profiles    core.ProfileStore
	episodes    core.EpisodicStore
	longTerm    core.LongTermStore
	dispatcher  *skill.Dispatcher
	db          *sql.DB
}

// New creates a Loom instance with optional overrides. Unset stores are
// initialized with the built-in implementations; the SQLite-backed tiers
// share one database opened at Options.DBPath.
func New(optFns ...func(o *Options)) (*Loom, error) {
	cfg := config.Load()

	opts := Options{
		EngineConfig: engine.DefaultConfig,
		DBPath:       "loom.db",
		ShortTerm:    memory.NewShortTerm(),
		LongTerm:     memory.NewInMemoryLongTerm(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("loom: provider is required")
	}

	l := &Loom{opts: opts}

	if opts.Profiles == nil || opts.Episodes == nil {
		db, err := memory.OpenDB(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("loom: %w", err)
		}
		l.db = db
		if opts.Profiles == nil {
			opts.Profiles = memory.NewSQLiteProfileStore(db)
		}
		if opts.Episodes == nil {
			opts.Episodes = memory.NewSQLiteEpisodeStore(db)
		}
	}

	l.shortTerm = opts.ShortTerm
	l.profiles = opts.Profiles
	l.episodes = opts.Episodes
	l.longTerm = opts.LongTerm

	l.coordinator = memory.NewCoordinator(opts.Profiles, opts.LongTerm, opts.Episodes, func(o *memory.CoordinatorOptions) {
		o.Logger = opts.Logger
	})

	l.dispatcher = opts.Dispatcher
	if l.dispatcher == nil {
		l.dispatcher = skill.NewDispatcher(func(o *skill.DispatcherOptions) {
			o.Logger = opts.Logger
			o.SearchAPIKey = cfg.SearchAPIKey
		})
	}

	eng, err := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Coordinator = l.coordinator
		o.ShortTerm = opts.ShortTerm
		o.Dispatcher = l.dispatcher
		o.Provider = opts.Provider
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	l.engine = eng
	return l, nil
}

// Close releases the SQLite database when this instance owns one.
func (l *Loom) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RouteToAgent classifies a message onto a persona id.
func (l *Loom) RouteToAgent(message string) string {
	return l.engine.RouteToAgent(message)
}

// RunTurn executes one inbound message synchronously.
func (l *Loom) RunTurn(ctx context.Context, turn engine.Turn) (*engine.TurnResult, error) {
	return l.engine.RunTurn(ctx, turn)
}

// StreamTurn executes one inbound message, relaying the answer through
// onEvent.
func (l *Loom) StreamTurn(ctx context.Context, turn engine.Turn, onEvent func(core.StreamEvent)) (*engine.TurnResult, error) {
	return l.engine.StreamTurn(ctx, turn, onEvent)
}

// GetRelevantContext assembles the prompt-ready memory context for a query.
func (l *Loom) GetRelevantContext(ctx context.Context, tenantID, userID, query string) string {
	return l.coordinator.RelevantContext(ctx, tenantID, userID, query)
}

// RecordEpisode is the best-effort episodic write exposed to collaborators.
func (l *Loom) RecordEpisode(ctx context.Context, tenantID, actorID, eventType, summary string, details map[string]any) {
	l.coordinator.RecordEpisode(ctx, tenantID, actorID, eventType, summary, details)
}

// ClearSessionMemory deletes every short-term key under the session.
func (l *Loom) ClearSessionMemory(ctx context.Context, tenantID, sessionID string) error {
	return l.shortTerm.ClearSession(ctx, tenantID, sessionID)
}

// Profiles exposes the profile tier.
func (l *Loom) Profiles() core.ProfileStore { return l.profiles }

// Episodes exposes the episodic tier.
func (l *Loom) Episodes() core.EpisodicStore { return l.episodes }

// LongTerm exposes the long-term tier.
func (l *Loom) LongTerm() core.LongTermStore { return l.longTerm }
