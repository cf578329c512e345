// Package appcontext provides the shared application context interface
// used by all commands. Commands accept it, or a narrower interface of
// their own, rather than the concrete App type.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/rostermerge"
)

// Interface defines what commands need from the application.
type Interface interface {
	// Client returns the rostermerge client, creating it lazily.
	Client() (rostermerge.Client, error)

	// ClientWithOptions creates a client with extra options on top of the
	// configured ones.
	ClientWithOptions(...rostermerge.Option) (rostermerge.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// NoColor reports whether colored output is disabled.
	NoColor() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
