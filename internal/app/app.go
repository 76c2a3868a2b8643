package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/artpar/reqtree/internal/config"
	"github.com/artpar/reqtree/internal/ident"
	"github.com/artpar/reqtree/internal/interfaces"
	"github.com/artpar/reqtree/internal/storage/filesystem"
	"github.com/artpar/reqtree/internal/storage/sqlite"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
)

// App is the main application container with dependency injection.
type App struct {
	config    config.Config
	logger    hclog.Logger
	fs        afero.Fs
	store     interfaces.TreeStore
	ownsStore bool
	generator ident.Generator
	notifier  workspace.Notifier
	workspace *workspace.Store
}

// Option is a function that configures the App.
type Option func(*App)

// New creates a new App with the given options.
func New(opts ...Option) *App {
	app := &App{
		config: config.Default(),
		fs:     afero.NewOsFs(),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		app.logger = NewLogger(app.config.LogLevel, os.Stderr)
	}
	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg config.Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithLogger sets the root logger.
func WithLogger(logger hclog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithFs sets the filesystem used by the file backend.
func WithFs(fs afero.Fs) Option {
	return func(a *App) {
		a.fs = fs
	}
}

// WithTreeStore uses store instead of the configured backend. The caller
// keeps ownership and closes it.
func WithTreeStore(store interfaces.TreeStore) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithGenerator sets the identifier generator.
func WithGenerator(gen ident.Generator) Option {
	return func(a *App) {
		a.generator = gen
	}
}

// WithNotifier sets where persistence and import failures are reported.
func WithNotifier(n workspace.Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// NewLogger creates the root logger at the given level.
func NewLogger(level string, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "reqtree",
		Level:  hclog.LevelFromString(level),
		Output: w,
	})
}

// Config returns the application configuration.
func (a *App) Config() config.Config {
	return a.config
}

// Logger returns the root logger.
func (a *App) Logger() hclog.Logger {
	return a.logger
}

// Fs returns the filesystem used for tree files and import reads.
func (a *App) Fs() afero.Fs {
	return a.fs
}

// TreeStore returns the persistence backend, opening it if needed.
func (a *App) TreeStore() (interfaces.TreeStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	var (
		store interfaces.TreeStore
		err   error
	)
	switch a.config.Storage {
	case config.StorageSQLite:
		if err := os.MkdirAll(a.config.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err = sqlite.New(a.config.DatabasePath())
	case config.StorageFile, "":
		store, err = filesystem.NewTreeStore(a.fs, a.config.TreeDir())
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", a.config.Storage)
	}
	if err != nil {
		return nil, err
	}

	a.logger.Named("storage").Debug("opened tree store", "backend", a.config.Storage, "data_dir", a.config.DataDir)
	a.store = store
	a.ownsStore = true
	return store, nil
}

// Open returns the loaded workspace for the configured user, creating it
// on first use. A failed load is returned as an error so callers do not
// overwrite stored data with an empty tree.
func (a *App) Open(ctx context.Context) (*workspace.Store, error) {
	if a.workspace != nil {
		return a.workspace, nil
	}

	store, err := a.TreeStore()
	if err != nil {
		return nil, err
	}

	ws, err := workspace.New(workspace.Config{
		UserID:    a.config.User,
		Persister: store,
		Generator: a.generator,
		Notifier:  a.notifier,
		Logger:    a.logger,
	})
	if err != nil {
		return nil, err
	}

	if err := ws.Load(ctx); err != nil {
		ws.Close()
		return nil, err
	}

	a.workspace = ws
	return ws, nil
}

// Close flushes pending saves and releases the backend if the app opened it.
func (a *App) Close() error {
	if a.workspace != nil {
		a.workspace.Close()
		a.workspace = nil
	}
	if a.ownsStore && a.store != nil {
		err := a.store.Close()
		a.store = nil
		a.ownsStore = false
		return err
	}
	return nil
}
