package rostermerge

import (
	"time"

	"github.com/agentstation/rostermerge/pkg/constants"
	"github.com/agentstation/rostermerge/pkg/errors"
)

// config holds the client configuration.
type config struct {
	dataRoot     string
	settingsFile string
	journalPath  string
	requireClean bool
	now          func() time.Time
}

func defaultConfig() *config {
	return &config{
		dataRoot: ".",
		now:      time.Now,
	}
}

// Option is a function that configures a Client
type Option func(*config) error

// WithDataRoot sets the directory holding data/ and incoming/.
func WithDataRoot(path string) Option {
	return func(c *config) error {
		if path == "" {
			return errors.NewValidationError("data_root", path, "cannot be empty")
		}
		c.dataRoot = path
		return nil
	}
}

// WithSettingsFile sets the seat settings file. A missing file disables the
// incoming-volume check during merges.
func WithSettingsFile(path string) Option {
	return func(c *config) error {
		c.settingsFile = path
		return nil
	}
}

// WithDefaultSettings uses the settings file at its default location.
func WithDefaultSettings() Option {
	return WithSettingsFile(constants.DefaultSettingsFile)
}

// WithJournal records every merge in a SQLite journal at path.
func WithJournal(path string) Option {
	return func(c *config) error {
		c.journalPath = path
		return nil
	}
}

// WithRequireClean refuses to merge when the data root has uncommitted changes.
func WithRequireClean(enabled bool) Option {
	return func(c *config) error {
		c.requireClean = enabled
		return nil
	}
}

// WithClock overrides the clock used for today's date.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return errors.NewValidationError("clock", nil, "cannot be nil")
		}
		c.now = now
		return nil
	}
}
