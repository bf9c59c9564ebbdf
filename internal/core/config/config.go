package config

import (
	"runtime"
	"time"

	"scriptlint/internal/engine/extract"
	"scriptlint/internal/engine/rules"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         []string      `toml:"paths"`
	Exclude       Exclude       `toml:"exclude"`
	Extract       Extract       `toml:"extract"`
	Analysis      Analysis      `toml:"analysis"`
	Cache         Cache         `toml:"cache"`
	Rules         rules.Config  `toml:"rules"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Extract struct {
	DescriptorExtensions []string `toml:"descriptor_extensions"`
	ScriptExtensions     []string `toml:"script_extensions"`
	OpenMarker           string   `toml:"open_marker"`
	CloseMarker          string   `toml:"close_marker"`
	ScriptFields         []string `toml:"script_fields"`
}

type Analysis struct {
	// Workers bounds concurrent fragment analysis; 0 means one per CPU.
	Workers int `toml:"workers"`
}

type Cache struct {
	// MaxEntries bounds the AST cache; 0 means unbounded.
	MaxEntries int `toml:"max_entries"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// ExtractOptions converts the extract section for the fragment extractor.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		DescriptorExtensions: c.Extract.DescriptorExtensions,
		ScriptExtensions:     c.Extract.ScriptExtensions,
		OpenMarker:           c.Extract.OpenMarker,
		CloseMarker:          c.Extract.CloseMarker,
		ScriptFields:         c.Extract.ScriptFields,
	}
}

// WorkerCount resolves Analysis.Workers.
func (c *Config) WorkerCount() int {
	if c.Analysis.Workers > 0 {
		return c.Analysis.Workers
	}
	return runtime.NumCPU()
}
