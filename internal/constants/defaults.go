package constants

// Default buffering and caching configuration values
const (
	DefaultDebounceMs        = 10000
	DefaultMaxBatchSize      = 5
	DefaultRecentCacheMax    = 30
	DefaultRecentCacheTTLSec = 600
	DefaultDedupTTLSec       = 300
	DefaultCacheShards       = 16
)

// Default timeout values
const (
	DefaultAITimeoutMs           = 90000
	DefaultSendTimeoutSec        = 10
	DefaultHTTPTimeoutSec        = 30
	DefaultMediaDownloadSec      = 30
	DefaultTranscribeTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
)

// Default server and retention values
const (
	DefaultServerPort            = 8084
	DefaultRetentionDays         = 30
	DefaultSweepIntervalSec      = 60
	DefaultDatabaseRetryAttempts = 3
	DefaultBackoffInitialMs      = 500
	DefaultBackoffMaxMs          = 5000
	ServerErrorChannelSize       = 1
)

// Privacy settings
const (
	DefaultPhoneMaskLength = 4
)
