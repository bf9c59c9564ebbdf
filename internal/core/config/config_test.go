package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainerrors "scriptlint/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scriptlint.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
version = 1
paths = ["./apps", "./lib"]

[exclude]
dirs = [".git", "vendor"]
files = ["*.generated.json"]

[extract]
descriptor_extensions = ["JSON", ".descriptor"]
open_marker = "{%"
close_marker = "%}"
script_fields = ["**.onLoad"]

[analysis]
workers = 3

[cache]
max_entries = 500

[rules.complexity]
severity = "warning"
thresholds = { max_complexity = 8 }

[rules.no-var]
enabled = false

[history]
enabled = true
path = "state/runs.db"

[watch]
debounce = "1s"

[observability]
metrics_address = "127.0.0.1:9464"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Paths) != 2 || cfg.Paths[1] != "./lib" {
		t.Errorf("unexpected paths %v", cfg.Paths)
	}
	if got := cfg.Extract.DescriptorExtensions; len(got) != 2 || got[0] != ".json" || got[1] != ".descriptor" {
		t.Errorf("expected normalized descriptor extensions, got %v", got)
	}
	if cfg.Extract.ScriptExtensions[0] != ".js" {
		t.Errorf("expected default script extension, got %v", cfg.Extract.ScriptExtensions)
	}
	if cfg.Extract.OpenMarker != "{%" || cfg.Extract.CloseMarker != "%}" {
		t.Errorf("unexpected markers %q %q", cfg.Extract.OpenMarker, cfg.Extract.CloseMarker)
	}
	if cfg.WorkerCount() != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.WorkerCount())
	}
	if cfg.Cache.MaxEntries != 500 {
		t.Errorf("expected cache bound 500, got %d", cfg.Cache.MaxEntries)
	}
	complexity := cfg.Rules["complexity"]
	if complexity.Severity != "warning" || complexity.Thresholds["max_complexity"] != 8 {
		t.Errorf("unexpected complexity settings %+v", complexity)
	}
	if noVar := cfg.Rules["no-var"]; noVar.Enabled == nil || *noVar.Enabled {
		t.Errorf("expected no-var disabled, got %+v", noVar)
	}
	if !cfg.History.Enabled || cfg.History.BusyTimeout != 5*time.Second {
		t.Errorf("unexpected history %+v", cfg.History)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected debounce 1s, got %v", cfg.Watch.Debounce)
	}

	opts := cfg.ExtractOptions()
	if opts.OpenMarker != "{%" || len(opts.ScriptFields) != 1 {
		t.Errorf("unexpected extract options %+v", opts)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Version != 1 || len(cfg.Paths) != 1 || cfg.Paths[0] != "." {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Extract.OpenMarker != "<%" || cfg.Extract.CloseMarker != "%>" {
		t.Errorf("unexpected default markers")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected 500ms debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.WorkerCount() < 1 {
		t.Errorf("expected at least one worker")
	}
	if cfg.History.Enabled {
		t.Errorf("history must be opt-in")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown rule", "[rules.no-such-rule]\nenabled = true", "unknown rule"},
		{"bad severity", "[rules.no-var]\nseverity = \"fatal\"", "unknown severity"},
		{"unknown threshold", "[rules.nesting]\nthresholds = { max_lines = 3 }", "unknown threshold"},
		{"zero threshold", "[rules.nesting]\nthresholds = { max_nesting = 0 }", "must be > 0"},
		{"same markers", "[extract]\nopen_marker = \"@@\"\nclose_marker = \"@@\"", "must differ"},
		{"overlapping extensions", "[extract]\nscript_extensions = [\".json\"]", "both descriptor and script"},
		{"bad glob", "[exclude]\ndirs = [\"[oops\"]", "invalid exclude dir pattern"},
		{"negative workers", "[analysis]\nworkers = -1", "analysis.workers"},
		{"bad version", "version = 7", "unsupported config version"},
		{"bad metrics address", "[observability]\nmetrics_address = \"nohostport\"", "metrics_address"},
		{"unknown key", "colour = \"blue\"", "unknown config key"},
		{"syntax", "paths = [", "decode config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
			if !domainerrors.IsCode(err, domainerrors.CodeValidationError) {
				t.Errorf("expected validation error code, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !domainerrors.IsCode(err, domainerrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCRIPTLINT_ANALYSIS_WORKERS", "7")
	t.Setenv("SCRIPTLINT_WATCH_DEBOUNCE", "2s")
	t.Setenv("SCRIPTLINT_HISTORY_ENABLED", "true")
	t.Setenv("SCRIPTLINT_CACHE_MAX_ENTRIES", "not-a-number")

	cfg, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.Workers != 7 {
		t.Errorf("expected workers override, got %d", cfg.Analysis.Workers)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("expected debounce override, got %v", cfg.Watch.Debounce)
	}
	if !cfg.History.Enabled {
		t.Errorf("expected history enabled by env")
	}
	if cfg.Cache.MaxEntries != 0 {
		t.Errorf("invalid ints must be ignored, got %d", cfg.Cache.MaxEntries)
	}
}

func TestResolveRelative(t *testing.T) {
	base := filepath.FromSlash("/work/project")
	if got := ResolveRelative(base, "data/h.db"); got != filepath.Join(base, "data", "h.db") {
		t.Errorf("unexpected relative resolution %q", got)
	}
	abs := filepath.FromSlash("/var/h.db")
	if got := ResolveRelative(base, abs); got != abs {
		t.Errorf("absolute paths must be kept, got %q", got)
	}
	if got := ResolveRelative(base, "  "); got != base {
		t.Errorf("empty value resolves to base, got %q", got)
	}
}

func TestDetectProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "apps", "orders")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "scriptlint.toml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := DetectProjectRoot([]string{nested})
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(root)
	if resolved, _ := filepath.EvalSymlinks(got); resolved != want {
		t.Errorf("expected root %q, got %q", want, got)
	}
}
