package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"wagate/internal/constants"
	"wagate/internal/models"
)

// LoadConfig reads the JSON config file, fills defaults, applies environment
// overrides, and validates the result.
func LoadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = constants.DefaultServerPort
	}
	if cfg.Server.ReadTimeoutSec == 0 {
		cfg.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if cfg.Server.WriteTimeoutSec == 0 {
		cfg.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if cfg.Server.IdleTimeoutSec == 0 {
		cfg.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if cfg.Server.SweepIntervalSec == 0 {
		cfg.Server.SweepIntervalSec = constants.DefaultSweepIntervalSec
	}

	if cfg.AI.TimeoutMs == 0 {
		cfg.AI.TimeoutMs = constants.DefaultAITimeoutMs
	}
	if cfg.Provider.TimeoutSec == 0 {
		cfg.Provider.TimeoutSec = constants.DefaultSendTimeoutSec
	}
	if cfg.Provider.Channel == "" {
		cfg.Provider.Channel = "whatsapp"
	}

	if cfg.Buffer.DebounceMs == 0 {
		cfg.Buffer.DebounceMs = constants.DefaultDebounceMs
	}
	if cfg.Buffer.MaxBatchSize == 0 {
		cfg.Buffer.MaxBatchSize = constants.DefaultMaxBatchSize
	}

	if cfg.Cache.DedupTTLSec == 0 {
		cfg.Cache.DedupTTLSec = constants.DefaultDedupTTLSec
	}
	if cfg.Cache.RecentCacheMax == 0 {
		cfg.Cache.RecentCacheMax = constants.DefaultRecentCacheMax
	}
	if cfg.Cache.RecentCacheTTLSec == 0 {
		cfg.Cache.RecentCacheTTLSec = constants.DefaultRecentCacheTTLSec
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = constants.DefaultDatabaseRetryAttempts
	}
	if cfg.Retry.InitialBackoffMs == 0 {
		cfg.Retry.InitialBackoffMs = constants.DefaultBackoffInitialMs
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = constants.DefaultBackoffMaxMs
	}

	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = constants.DefaultRetentionDays
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applyEnvOverrides lets deployment environments override file values
// without rewriting the config file.
func applyEnvOverrides(cfg *models.Config) {
	if v := os.Getenv("WAGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WAGATE_AI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("WAGATE_PROVIDER_SEND_URL"); v != "" {
		cfg.Provider.SendURL = v
	}
	if v := os.Getenv("WAGATE_TRANSCRIBE_URL"); v != "" {
		cfg.Provider.TranscribeURL = v
	}
	if v := os.Getenv("WAGATE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("WAGATE_MEDIA_DIR"); v != "" {
		cfg.Media.StoreDir = v
	}
	if v := os.Getenv("WAGATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WAGATE_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Buffer.DebounceMs = ms
		}
	}
}

func validate(cfg *models.Config) error {
	if cfg.AI.BaseURL == "" {
		return models.ConfigError{Message: "ai.base_url is required"}
	}
	if cfg.Provider.SendURL == "" {
		return models.ConfigError{Message: "provider.send_url is required"}
	}
	if cfg.Database.Path == "" {
		return models.ConfigError{Message: "database.path is required"}
	}
	if cfg.Media.StoreDir == "" {
		return models.ConfigError{Message: "media.store_dir is required"}
	}
	if cfg.Buffer.MaxBatchSize < 1 {
		return models.ConfigError{Message: "buffer.maxBatchSize must be at least 1"}
	}
	return nil
}
