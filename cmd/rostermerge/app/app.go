// Package app provides the application context and dependency management
// for the rostermerge CLI. It centralizes configuration, logging and the
// lifecycle of the rostermerge client.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/rostermerge"
	"github.com/agentstation/rostermerge/internal/appcontext"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// App represents the rostermerge application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client rostermerge.Client
}

var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
// Configuration is loaded from the environment and config files and can be
// replaced with options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "failed to load config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// NoColor reports whether colored output is disabled.
func (a *App) NoColor() bool { return a.config.NoColor }

// Client returns the rostermerge client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Client() (rostermerge.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := rostermerge.New(a.clientOptions()...)
	if err != nil {
		return nil, errors.NewConfigError("client", "failed to create client", err)
	}
	a.client = c
	return c, nil
}

// ClientWithOptions returns a new client with custom options applied after
// the configured ones. The caller owns it and must close it.
func (a *App) ClientWithOptions(opts ...rostermerge.Option) (rostermerge.Client, error) {
	c, err := rostermerge.New(append(a.clientOptions(), opts...)...)
	if err != nil {
		return nil, errors.NewConfigError("client", "failed to create client with custom options", err)
	}
	return c, nil
}

// Shutdown releases the client.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() []rostermerge.Option {
	var opts []rostermerge.Option
	if a.config.DataRoot != "" {
		opts = append(opts, rostermerge.WithDataRoot(a.config.DataRoot))
	}
	if a.config.SettingsFile != "" {
		opts = append(opts, rostermerge.WithSettingsFile(a.config.SettingsFile))
	}
	if a.config.JournalPath != "" {
		opts = append(opts, rostermerge.WithJournal(a.config.JournalPath))
	}
	if a.config.RequireClean {
		opts = append(opts, rostermerge.WithRequireClean(true))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client (useful for testing).
func WithClient(c rostermerge.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
