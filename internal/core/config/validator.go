package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/gobwas/glob"

	"scriptlint/internal/engine/rules"
)

// Validate checks a loaded configuration. Load calls it after defaults are
// applied; callers that build a Config by hand should call it too.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validatePaths,
		validateExclude,
		validateExtract,
		validateAnalysis,
		validateRules,
		validateHistory,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validatePaths(cfg *Config) error {
	for i, p := range cfg.Paths {
		if p == "" {
			return fmt.Errorf("paths[%d] must not be empty", i)
		}
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for _, p := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
	}
	for _, p := range cfg.Exclude.Files {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateExtract(cfg *Config) error {
	open := strings.TrimSpace(cfg.Extract.OpenMarker)
	closing := strings.TrimSpace(cfg.Extract.CloseMarker)
	if open == "" || closing == "" {
		return fmt.Errorf("extract.open_marker and extract.close_marker must not be empty")
	}
	if open == closing {
		return fmt.Errorf("extract.open_marker and extract.close_marker must differ, both are %q", open)
	}
	seen := map[string]string{}
	for _, ext := range cfg.Extract.DescriptorExtensions {
		if ext == "" {
			return fmt.Errorf("extract.descriptor_extensions must not contain empty entries")
		}
		seen[ext] = "descriptor"
	}
	for _, ext := range cfg.Extract.ScriptExtensions {
		if ext == "" {
			return fmt.Errorf("extract.script_extensions must not contain empty entries")
		}
		if seen[ext] == "descriptor" {
			return fmt.Errorf("extension %q is listed as both descriptor and script", ext)
		}
	}
	for _, p := range cfg.Extract.ScriptFields {
		if _, err := glob.Compile(p, '.'); err != nil {
			return fmt.Errorf("invalid extract.script_fields pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be >= 0, got %d", cfg.Analysis.Workers)
	}
	if cfg.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be >= 0, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %s", cfg.Watch.Debounce)
	}
	return nil
}

func validateRules(cfg *Config) error {
	return rules.DefaultRegistry().Validate(cfg.Rules)
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if addr := cfg.Observability.MetricsAddress; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_address %q: %w", addr, err)
		}
	}
	return nil
}
