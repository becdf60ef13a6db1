package constants

import "errors"

// Configuration errors.
var (
	ErrNoBlocksConfigured    = errors.New("no blocks configured, use 'blocks config set block.<name> <url>' to add one")
	ErrBlockURLRequired      = errors.New("block base URL is required")
	ErrNotAuthenticated      = errors.New("not authenticated, use 'blocks login' first")
	ErrUnknownConfigKey      = errors.New("unknown configuration key")
	ErrEmptyToken            = errors.New("token must not be empty")
	ErrUnsupportedOutput     = errors.New("unsupported output format")
	ErrInvalidJWTFormat      = errors.New("invalid JWT format")
	ErrNoExpirationClaim     = errors.New("no expiration claim found")
	ErrNoRefresherConfigured = errors.New("token is expired and no refresher is configured")
	ErrInvalidConfigValue    = errors.New("invalid configuration value")
)
