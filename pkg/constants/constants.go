// Package constants provides shared constants used throughout the rostermerge codebase.
// This includes matching thresholds, file permissions, date layouts and the
// well-known field names of person and committee documents.
package constants

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Reconciliation constants
const (
	// SimilarityThreshold is the name similarity ratio a same-seat pair must exceed to match
	SimilarityThreshold = 0.7

	// IncomingRatio bounds incoming/expected volume: RATIO < n < 1/RATIO passes
	IncomingRatio = 0.9

	// DeathReason is the end_reason stamped on roles when a person dies in office
	DeathReason = "Deceased"

	// IdentifierScheme is the scheme recorded when a merged-away id is kept
	IdentifierScheme = "openstates"

	// PersonIDPrefix prefixes generated person ids
	PersonIDPrefix = "ocd-person/"
)

// Format constants
const (
	// DateLayout is the layout of every date stored in a document
	DateLayout = "2006-01-02"

	// FileExtension is the extension of every stored record
	FileExtension = ".yml"
)

// Document field names
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldRoles            = "roles"
	FieldType             = "type"
	FieldDistrict         = "district"
	FieldJurisdiction     = "jurisdiction"
	FieldStartDate        = "start_date"
	FieldEndDate          = "end_date"
	FieldEndReason        = "end_reason"
	FieldDeathDate        = "death_date"
	FieldContactDetails   = "contact_details"
	FieldNote             = "note"
	FieldMemberships      = "memberships"
	FieldOtherIdentifiers = "other_identifiers"
	FieldScheme           = "scheme"
	FieldIdentifier       = "identifier"
)

// Path constants
const (
	// DefaultSettingsFile is the settings file read when none is configured
	DefaultSettingsFile = "settings.yml"

	// DefaultConfigName is the config file name searched in $HOME and the working directory
	DefaultConfigName = ".rostermerge"
)
