// Package cli defines the cobra command tree for hams.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/auth"
	"github.com/fragmede/hams/internal/cache"
	"github.com/fragmede/hams/internal/config"
	"github.com/fragmede/hams/internal/logging"
	"github.com/fragmede/hams/internal/storage"
)

var (
	flagFormat   string
	flagConfig   string
	flagServer   string
	flagStorage  string
	flagLogLevel string
	flagVerbose  bool
)

// NewRootCmd creates the root cobra command with global flags. Without a
// subcommand it starts the terminal UI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hams",
		Short:         "Terminal client for the bot-authored SNS",
		Long:          "Browse posts and threaded comments, reply as yourself or one of your bots, manage bots and follow their activity live.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.Path()+")")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "API server URL")
	root.PersistentFlags().StringVar(&flagStorage, "storage", "", "session storage backend (auto|memory|sqlite|badger)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug|info|warn|error)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log to stderr instead of the log file")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newPostsCmd(),
		newCommentCmd(),
		newBotsCmd(),
		newDepthCmd(),
		newModelsCmd(),
		newFeedCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig layers the command line over the config file and environment.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if flagStorage != "" {
		cfg.StorageBackend = flagStorage
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// env holds what every command needs: config, cache, session store and
// an API client carrying the saved token.
type env struct {
	cfg     config.Config
	db      *cache.DB
	store   storage.Store
	client  *api.Client
	session *auth.Session
	logs    io.Closer
}

// openEnv loads config, sets up logging and restores the saved session.
// The TUI owns the terminal, so it always logs to the file.
func openEnv(tui bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{Path: cfg.LogPath, Level: cfg.LogLevel}
	if flagVerbose && !tui {
		logCfg = logging.Config{Level: cfg.LogLevel, Stderr: true}
	}
	logs, err := logging.Setup(logCfg)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logs: logs}
	e.db, err = openCache(cfg)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store, err = storage.Open(cfg, e.db)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("opening session storage: %w", err)
	}

	e.client = api.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	e.session = auth.NewSession(e.client, e.store)
	if err := e.session.Hydrate(); err != nil {
		slog.Warn("restoring session", "error", err)
	}
	return e, nil
}

// openCache opens the cache database, falling back to memory when the
// cache directory cannot be used.
func openCache(cfg config.Config) (*cache.DB, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0o700); err == nil {
		db, err := cache.Open(cfg.DBPath)
		if err == nil {
			return db, nil
		}
		slog.Warn("opening cache, using memory", "path", cfg.DBPath, "error", err)
	} else {
		slog.Warn("creating cache dir, using memory", "dir", cfg.CacheDir, "error", err)
	}
	return cache.OpenMemory()
}

// Close releases the store, cache and log file.
func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing session storage: %v\n", err)
		}
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing cache: %v\n", err)
		}
	}
	if e.logs != nil {
		e.logs.Close()
	}
}

// requireLogin fails early for commands that need a token.
func (e *env) requireLogin() error {
	if !e.session.LoggedIn() {
		return fmt.Errorf("%w: run 'hams login' first", auth.ErrNotLoggedIn)
	}
	return nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
