package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: SCRIPTLINT_[SECTION]_[KEY] (e.g., SCRIPTLINT_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "SCRIPTLINT_ANALYSIS_WORKERS")
	setEnvInt(&cfg.Cache.MaxEntries, "SCRIPTLINT_CACHE_MAX_ENTRIES")

	// History
	setEnvBool(&cfg.History.Enabled, "SCRIPTLINT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "SCRIPTLINT_HISTORY_PATH")
	setEnvDuration(&cfg.History.BusyTimeout, "SCRIPTLINT_HISTORY_BUSY_TIMEOUT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "SCRIPTLINT_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddress, "SCRIPTLINT_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "SCRIPTLINT_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
