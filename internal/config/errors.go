package config

import "errors"

// Validation errors returned by Config.Validate.
var (
	ErrConfigNotFound      = errors.New("configuration file not found")
	ErrInvalidConcurrency  = errors.New("invalid concurrency: must be non-negative")
	ErrInvalidTimeout      = errors.New("invalid timeout: must be positive")
	ErrInvalidRobotsMode   = errors.New("invalid robots mode: want prefix or agent")
	ErrInvalidArchive      = errors.New("invalid archive backend: want none, mongo or sqlite")
	ErrInvalidMaxBodySize  = errors.New("invalid max body size: must be non-negative")
	ErrInvalidSampleWidth  = errors.New("invalid sample width: must be positive")
	ErrInvalidLogLevel     = errors.New("invalid log level: want debug, info, warn or error")
	ErrInvalidDisplayTimer = errors.New("invalid display interval: must be positive")
)
