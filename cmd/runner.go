package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/docstore"
	"github.com/desertthunder/chordsync/internal/library"
	"github.com/desertthunder/chordsync/internal/models"
	"github.com/desertthunder/chordsync/internal/repositories"
	"github.com/desertthunder/chordsync/internal/services"
	"github.com/desertthunder/chordsync/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	store   docstore.Store
	logger  *log.Logger
	output  io.Writer
	closers []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config flag before any command runs. A nil Store is opened
// from the configured backend on first use.
type RunnerOpts struct {
	Config *shared.Config
	Store  docstore.Store
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		store:  opts.Store,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playlistsCommand, songsCommand, entriesCommand, inboxCommand, shareCommand, liveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by the global --config flag.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.config == nil {
		r.config = r.loadConfig(cmd.String("config"))
	}
	return ctx, nil
}

// loadConfig reads path, falling back to the embedded defaults when it is missing or invalid.
func (r *Runner) loadConfig(path string) *shared.Config {
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig()
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// SetLogger replaces the logger used by the runner and every backend it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases every backend opened by the runner.
func (r *Runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("failed to close backend", "error", err)
		}
	}
	r.closers = nil
}

func (r *Runner) paths() docstore.Paths {
	return docstore.Paths{AppID: r.config.App.ID}
}

// backend opens the configured document store once.
func (r *Runner) backend(ctx context.Context) (docstore.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	switch r.config.Store.Backend {
	case shared.BackendMemory:
		r.logger.Warn("using the in-memory store; nothing is persisted")
		r.store = docstore.NewMemoryStore()

	case shared.BackendSQLite:
		store, err := r.openSQLite(ctx)
		if err != nil {
			return nil, err
		}
		r.store = store

	case shared.BackendFirestore:
		store, err := services.NewFirestoreStore(ctx, r.config.Firestore, r.logger)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, store.Close)
		r.store = store
	}

	r.logger.Debug("opened store", "backend", r.config.Store.Backend, "app", r.config.App.ID)
	return r.store, nil
}

func (r *Runner) openSQLite(ctx context.Context) (docstore.Store, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	r.closers = append(r.closers, db.Close)

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if _, err := shared.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var notifier docstore.Notifier = docstore.NewLocalNotifier()
	if r.config.Redis.URL != "" {
		rn, err := services.NewRedisNotifier(r.config.Redis.URL, r.config.Redis.Channel, r.logger)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, rn.Close)
		if err := rn.Start(ctx); err != nil {
			return nil, err
		}
		notifier = rn
	}

	return repositories.NewDocumentRepository(db, notifier), nil
}

// user builds the acting identity from the global flags.
func (r *Runner) user(cmd *cli.Command) (models.User, error) {
	uid := strings.TrimSpace(cmd.String("user"))
	if uid == "" {
		return models.User{}, fmt.Errorf("%w: pass --user or set CHORDSYNC_USER", shared.ErrLoginRequired)
	}
	return models.User{UID: uid, Email: cmd.String("email"), DisplayName: cmd.String("name")}, nil
}

// workspace is everything a command acting as one user needs.
type workspace struct {
	store   docstore.Store
	paths   docstore.Paths
	user    models.User
	loader  *catalog.Loader
	library *library.Library
}

func (r *Runner) workspace(ctx context.Context, cmd *cli.Command) (*workspace, error) {
	user, err := r.user(cmd)
	if err != nil {
		return nil, err
	}
	store, err := r.backend(ctx)
	if err != nil {
		return nil, err
	}

	paths := r.paths()
	return &workspace{
		store:   store,
		paths:   paths,
		user:    user,
		loader:  catalog.NewLoader(store, paths, r.logger),
		library: library.New(store, paths, r.logger),
	}, nil
}

func (w *workspace) catalog(ctx context.Context) (catalog.Catalog, error) {
	return w.loader.Load(ctx, w.user.UID)
}

// playlist resolves key against the user's catalog and loads its entries.
func (w *workspace) playlist(ctx context.Context, key string) (catalog.PlaylistView, []catalog.Item, error) {
	if key == "" {
		return catalog.PlaylistView{}, nil, fmt.Errorf("%w: --playlist", shared.ErrMissingArgument)
	}

	cat, err := w.catalog(ctx)
	if err != nil {
		return catalog.PlaylistView{}, nil, err
	}
	view, ok := cat.Playlist(key)
	if !ok {
		return catalog.PlaylistView{}, nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, key)
	}

	items, _, err := w.loader.LoadEntries(ctx, cat, key, w.user.UID)
	if err != nil {
		return catalog.PlaylistView{}, nil, err
	}
	return view, items, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
