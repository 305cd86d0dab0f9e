package models

// Config holds the application configuration
type Config struct {
	Server        ServerConfig   `json:"server"`
	AI            AIConfig       `json:"ai"`
	Provider      ProviderConfig `json:"provider"`
	Database      DatabaseConfig `json:"database"`
	Media         MediaConfig    `json:"media"`
	Buffer        BufferConfig   `json:"buffer"`
	Cache         CacheConfig    `json:"cache"`
	Retry         RetryConfig    `json:"retry"`
	Tracing       TracingConfig  `json:"tracing"`
	LogLevel      string         `json:"log_level"`
	RetentionDays int            `json:"retentionDays"`
}

// ServerConfig holds HTTP server related configuration
type ServerConfig struct {
	Port             int `json:"port"`
	ReadTimeoutSec   int `json:"readTimeoutSec"`
	WriteTimeoutSec  int `json:"writeTimeoutSec"`
	IdleTimeoutSec   int `json:"idleTimeoutSec"`
	SweepIntervalSec int `json:"sweepIntervalSec"`
}

// AIConfig holds AI backend related configuration
type AIConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMs int    `json:"timeout_ms"`
}

// ProviderConfig holds messaging provider related configuration
type ProviderConfig struct {
	SendURL       string `json:"send_url"`
	Channel       string `json:"channel"`
	TimeoutSec    int    `json:"timeoutSec"`
	MediaBaseURL  string `json:"media_base_url"`
	TranscribeURL string `json:"transcribe_url"`
}

// DatabaseConfig holds datastore related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// MediaConfig holds media storage related configuration
type MediaConfig struct {
	StoreDir      string `json:"store_dir"`
	PublicBaseURL string `json:"public_base_url"`
	MaxSizeMB     int    `json:"maxSizeMB"`
}

// BufferConfig holds conversation buffer related configuration
type BufferConfig struct {
	DebounceMs   int `json:"debounceMs"`
	MaxBatchSize int `json:"maxBatchSize"`
}

// CacheConfig holds dedup and recent-message cache configuration
type CacheConfig struct {
	DedupTTLSec       int `json:"dedupTTLSec"`
	RecentCacheMax    int `json:"recentCacheMax"`
	RecentCacheTTLSec int `json:"recentCacheTTLSec"`
}

// RetryConfig holds retry related configuration
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig holds OpenTelemetry related configuration
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
