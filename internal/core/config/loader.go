package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	domainerrors "scriptlint/internal/core/errors"
	"scriptlint/internal/engine/extract"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeNotFound, "read config"),
			domainerrors.CtxPath, path)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes TOML text, applies defaults and validates the result.
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "unknown config key "+undecoded[0].String())
	}

	applyDefaults(&cfg)
	normalize(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid config")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{".git", "node_modules"}
	}
	if cfg.Exclude.Files == nil {
		cfg.Exclude.Files = []string{"*.min.js"}
	}

	defaults := extract.DefaultOptions()
	if len(cfg.Extract.DescriptorExtensions) == 0 {
		cfg.Extract.DescriptorExtensions = defaults.DescriptorExtensions
	}
	if len(cfg.Extract.ScriptExtensions) == 0 {
		cfg.Extract.ScriptExtensions = defaults.ScriptExtensions
	}
	if strings.TrimSpace(cfg.Extract.OpenMarker) == "" {
		cfg.Extract.OpenMarker = defaults.OpenMarker
	}
	if strings.TrimSpace(cfg.Extract.CloseMarker) == "" {
		cfg.Extract.CloseMarker = defaults.CloseMarker
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "data/state/history.db"
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}
	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func normalize(cfg *Config) {
	for i, p := range cfg.Paths {
		cfg.Paths[i] = strings.TrimSpace(p)
	}
	for i, ext := range cfg.Extract.DescriptorExtensions {
		cfg.Extract.DescriptorExtensions[i] = normalizeExt(ext)
	}
	for i, ext := range cfg.Extract.ScriptExtensions {
		cfg.Extract.ScriptExtensions[i] = normalizeExt(ext)
	}
	cfg.Observability.MetricsAddress = strings.TrimSpace(cfg.Observability.MetricsAddress)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
