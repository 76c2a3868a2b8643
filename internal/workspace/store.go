// Package workspace holds the single source of truth for a user's tree,
// open tabs and navigation state. Every change goes through Dispatch, which
// applies the pure reducer and hands the resulting tree to the persister in
// the background.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/exporter"
	"github.com/artpar/reqtree/internal/ident"
	"github.com/artpar/reqtree/internal/importer"
	"github.com/artpar/reqtree/internal/interfaces"
	"github.com/artpar/reqtree/internal/tree"
	"github.com/hashicorp/go-hclog"
)

// Workspace errors.
var (
	ErrPersistence   = errors.New("persistence failure")
	ErrLoad          = errors.New("failed to load tree")
	ErrAlreadyLoaded = errors.New("tree already loaded")
	ErrNotLoaded     = errors.New("tree not loaded")
	ErrClosed        = errors.New("workspace closed")
)

const defaultSaveTimeout = 10 * time.Second

// Persister loads and saves a user's tree.
type Persister interface {
	LoadTree(ctx context.Context, userID string) ([]core.Collection, error)
	SaveTree(ctx context.Context, userID string, m interfaces.Mutation) error
}

// Config configures a Store.
type Config struct {
	// UserID selects whose tree is loaded and saved.
	UserID string

	// Persister stores the tree. Without one the store is memory only.
	Persister Persister

	// Generator supplies identifiers (default: random).
	Generator ident.Generator

	// Notifier receives persistence and import failures (default: log them).
	Notifier Notifier

	// SaveTimeout bounds each background save (default: 10s).
	SaveTimeout time.Duration

	Logger hclog.Logger
}

// Store serializes every change to the workspace state.
type Store struct {
	mu       sync.Mutex
	state    State
	pending  []Action
	loading  bool
	mutator  *tree.Mutator
	persist  Persister
	userID   string
	notifier Notifier
	logger   hclog.Logger
	saver    *saver

	importers *importer.Registry
	exporters *exporter.Registry

	closeOnce sync.Once
}

// New creates a store. The store accepts actions immediately but queues
// them until Load completes.
func New(cfg Config) (*Store, error) {
	if cfg.Persister != nil && cfg.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.Generator == nil {
		cfg.Generator = ident.NewRandom()
	}
	if cfg.SaveTimeout == 0 {
		cfg.SaveTimeout = defaultSaveTimeout
	}

	logger := cfg.Logger.Named("workspace")
	if cfg.Notifier == nil {
		cfg.Notifier = logNotifier{logger: logger}
	}

	s := &Store{
		state:     State{Tree: tree.New(nil)},
		mutator:   tree.NewMutator(cfg.Generator),
		persist:   cfg.Persister,
		userID:    cfg.UserID,
		notifier:  cfg.Notifier,
		logger:    logger,
		importers: importer.NewDefaultRegistry(cfg.Generator),
		exporters: exporter.NewDefaultRegistry(),
	}
	if cfg.Persister != nil {
		s.saver = newSaver(cfg.Persister, cfg.UserID, cfg.SaveTimeout, logger, s.saveFailed)
	}
	return s, nil
}

// Load fetches the user's tree and replays any actions dispatched before
// it arrived, in order, on top of it. A failed load leaves an empty tree,
// still replays, and raises an error notification.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Loaded || s.loading {
		s.mu.Unlock()
		return ErrAlreadyLoaded
	}
	s.loading = true
	s.mu.Unlock()

	var (
		collections []core.Collection
		err         error
	)
	if s.persist != nil {
		collections, err = s.persist.LoadTree(ctx, s.userID)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoad, err)
		collections = nil
	}

	s.mu.Lock()
	loaded, reassigned := s.mutator.Build(collections)
	if reassigned > 0 {
		s.logger.Warn("reassigned duplicate or empty ids in stored tree", "user", s.userID, "count", reassigned)
	}
	s.state.Tree = loaded
	s.state.Loaded = true
	s.loading = false
	queued := s.pending
	s.pending = nil
	var dropped []string
	for _, a := range queued {
		if res, saved := s.apply(a); !saved {
			dropped = append(dropped, res.Action)
		}
	}
	stats := s.state.Tree.Stats()
	s.mu.Unlock()

	for _, action := range dropped {
		s.unsaved(action)
	}

	if err != nil {
		s.logger.Error("failed to load tree", "user", s.userID, "error", err)
		s.notifier.Notify(Notification{Level: LevelError, Message: "could not load collections", Err: err})
		return err
	}

	s.logger.Info("loaded tree",
		"user", s.userID,
		"collections", stats.Collections,
		"requests", stats.Requests,
		"replayed", len(queued),
	)
	return nil
}

// Dispatch applies a to the state. Before Load completes the action is
// queued and the result is marked Pending.
func (s *Store) Dispatch(a Action) Result {
	s.mu.Lock()
	if !s.state.Loaded {
		s.pending = append(s.pending, a)
		s.mu.Unlock()
		return Result{Action: a.Name(), Found: true, Pending: true}
	}
	res, saved := s.apply(a)
	s.mu.Unlock()

	if !saved {
		s.unsaved(res.Action)
	}
	return res
}

// apply reduces a into the state and queues a save when the tree changed.
// It reports false when a change could not be queued.
func (s *Store) apply(a Action) (Result, bool) {
	next, res := Reduce(s.state, s.mutator, a)
	s.state = next

	if !res.Found {
		s.logger.Debug("action target not found", "action", res.Action)
		return res, true
	}
	if res.Changed && s.saver != nil {
		queued := s.saver.enqueue(interfaces.Mutation{
			Action:      res.Action,
			Collections: next.Tree.Collections(),
			At:          time.Now(),
		})
		if !queued {
			return res, false
		}
	}
	s.logger.Trace("applied action", "action", res.Action, "changed", res.Changed)
	return res, true
}

func (s *Store) unsaved(action string) {
	s.logger.Warn("workspace closed, change not saved", "action", action)
	s.notifier.Notify(Notification{
		Level:   LevelWarning,
		Message: fmt.Sprintf("could not save %s", action),
		Err:     fmt.Errorf("%w: %w", ErrPersistence, ErrClosed),
	})
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Import parses content and, on success, replaces the tree with it. A
// failed import leaves the state untouched and raises an error
// notification.
func (s *Store) Import(ctx context.Context, format importer.Format, content []byte) (*importer.ImportResult, error) {
	result, err := s.importers.Import(ctx, format, content)
	if err != nil {
		s.logger.Warn("import rejected", "format", format, "error", err)
		s.notifier.Notify(Notification{Level: LevelError, Message: "import failed", Err: err})
		return nil, err
	}

	s.Dispatch(Replace{Collections: result.Collections})
	return result, nil
}

// Export serializes the current tree.
func (s *Store) Export(ctx context.Context, format exporter.Format) (*exporter.ExportResult, error) {
	st := s.State()
	if !st.Loaded {
		return nil, ErrNotLoaded
	}
	return s.exporters.Export(ctx, format, st.Tree.Collections())
}

// ImportFormats lists the formats Import accepts.
func (s *Store) ImportFormats() []importer.Format {
	return append([]importer.Format{importer.FormatAuto}, s.importers.ListFormats()...)
}

// ExportFormats lists the formats Export produces.
func (s *Store) ExportFormats() []exporter.Format {
	return s.exporters.ListFormats()
}

// Flush waits until every queued save has been attempted.
func (s *Store) Flush() {
	if s.saver != nil {
		s.saver.flush()
	}
}

// Close drains queued saves and stops the background saver. The persister
// is not closed.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.saver != nil {
			s.saver.close()
		}
	})
	return nil
}

func (s *Store) saveFailed(m interfaces.Mutation, err error) {
	s.notifier.Notify(Notification{
		Level:   LevelWarning,
		Message: fmt.Sprintf("could not save %s", m.Action),
		Err:     fmt.Errorf("%w: %w", ErrPersistence, err),
	})
}
