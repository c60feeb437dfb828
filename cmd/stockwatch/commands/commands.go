package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/stockwatch/internal/backend"
	"github.com/slok/stockwatch/internal/backend/fake"
	"github.com/slok/stockwatch/internal/backend/rest"
	"github.com/slok/stockwatch/internal/conventions"
	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/printer"
	storageio "github.com/slok/stockwatch/internal/storage/io"
	"github.com/slok/stockwatch/internal/storage/sqlite"
	"github.com/slok/stockwatch/internal/tracker"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	ConfigPath   string
	ServerURL    string
	FakeBackend  bool
	PollInterval time.Duration
	Timeout      time.Duration
	// PollRetries is negative when not set.
	PollRetries   int
	HistoryDBPath string
	History       bool

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	app.Flag("config", "Path to the YAML configuration file.").Default(defaultConfigPath()).StringVar(&c.ConfigPath)
	app.Flag("server-url", "Analysis server URL.").StringVar(&c.ServerURL)
	app.Flag("fake-backend", "Use an in-memory fake analysis server.").BoolVar(&c.FakeBackend)
	app.Flag("poll-interval", "Task status poll interval.").DurationVar(&c.PollInterval)
	app.Flag("timeout", "Time a task is tracked before giving up.").DurationVar(&c.Timeout)
	app.Flag("poll-retries", "Retries of a failed status request before the task fails (negative uses the configured ones).").Default("-1").IntVar(&c.PollRetries)
	app.Flag("history-db", "Path to the finished tasks history database.").Default(defaultHistoryDBPath()).StringVar(&c.HistoryDBPath)
	app.Flag("history", "Save the finished tasks on the history database.").BoolVar(&c.History)

	return c
}

func defaultConfigPath() string {
	return conventions.ConfigPath(conventions.DataDir(homedir.HomeDir()))
}

func defaultHistoryDBPath() string {
	return conventions.HistoryDBPath(conventions.DataDir(homedir.HomeDir()))
}

// loadConfig loads the configuration file and sets the global flags on top.
// The default configuration file is optional.
func (r RootCommand) loadConfig(ctx context.Context) (model.ClientConfig, error) {
	var cfg model.ClientConfig

	path := r.ConfigPath
	if path != "" {
		if !filepath.IsAbs(path) {
			absPath, err := filepath.Abs(path)
			if err != nil {
				return cfg, fmt.Errorf("could not resolve config path: %w", err)
			}
			path = absPath
		}

		configRepo := storageio.NewConfigYAMLRepository(os.DirFS("/"))
		fileCfg, err := configRepo.GetConfig(ctx, path[1:])
		switch {
		case err == nil:
			cfg = fileCfg
		case errors.Is(err, model.ErrNotFound) && r.ConfigPath == defaultConfigPath():
			r.Logger.Debugf("No config file at %s, using defaults", path)
		default:
			return cfg, fmt.Errorf("could not load config: %w", err)
		}
	}

	return r.overrideConfig(cfg), nil
}

func (r RootCommand) overrideConfig(cfg model.ClientConfig) model.ClientConfig {
	if r.ServerURL != "" {
		cfg.ServerURL = r.ServerURL
	}
	if r.PollInterval != 0 {
		cfg.PollInterval = r.PollInterval
	}
	if r.Timeout != 0 {
		cfg.Timeout = r.Timeout
	}
	if r.PollRetries >= 0 {
		retries := r.PollRetries
		cfg.PollRetries = &retries
	}

	return cfg
}

func (r RootCommand) newBackend(cfg model.ClientConfig) (backend.Client, error) {
	if r.FakeBackend {
		b, err := fake.NewBackend(fake.BackendConfig{Logger: r.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create fake backend: %w", err)
		}
		return b, nil
	}

	var httpClient *http.Client
	if cfg.ServerTimeout > 0 {
		httpClient = &http.Client{Timeout: cfg.ServerTimeout}
	}

	c, err := rest.NewClient(rest.ClientConfig{
		BaseURL:         cfg.ServerURL,
		HTTPClient:      httpClient,
		StartPerMinute:  cfg.StartPerMinute,
		StatusPerMinute: cfg.StatusPerMinute,
		Burst:           cfg.RateLimitBurst,
		Logger:          r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create REST backend: %w", err)
	}

	return c, nil
}

func (r RootCommand) newTracker(client backend.Client, cfg model.ClientConfig) (*tracker.Tracker, error) {
	tcfg := tracker.Config{
		Client:       client,
		PollInterval: cfg.PollInterval,
		Timeout:      cfg.Timeout,
		Logger:       r.Logger,
	}
	if cfg.PollRetries != nil {
		tcfg.PollRetries = *cfg.PollRetries
	}

	t, err := tracker.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("could not create tracker: %w", err)
	}

	return t, nil
}

func (r RootCommand) newHistory(ctx context.Context) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: r.HistoryDBPath,
		Logger: r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open history: %w", err)
	}

	return repo, nil
}

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(w)
	default:
		return printer.NewTablePrinter(w)
	}
}
