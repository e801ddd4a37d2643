package constants

import "time"

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
	HistoryMatchCap  = 200
)

const DefaultInitialDelay = 500 * time.Millisecond

// DefaultRetryAfter is suggested to clients when upstream rate-limited us without a hint.
const DefaultRetryAfter = 1 * time.Second

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	HistoryTimeout     = 2 * time.Minute
	MetadataTimeout    = 15 * time.Second
)

// MetadataRetryInterval spaces reloads of image tables that failed to load.
const MetadataRetryInterval = 1 * time.Minute

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// KSTOffset is the fixed regional display offset (UTC+9).
const KSTOffset = 9 * 60 * 60
