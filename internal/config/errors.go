package config

const (
	// Config errors
	ErrInvalidConfigFmt = "invalid config %s: %s"
	ErrLoadConfigFmt    = "Failed to load config: %v"

	// Auth errors
	ErrTokenMissing = "no API token configured (set " + EnvToken + ")"
	ErrNotAdmin     = "signed-in user is not the blog admin"

	// Cache errors
	ErrOpenSnapshotsFmt = "Failed to open snapshot store: %v"
)
