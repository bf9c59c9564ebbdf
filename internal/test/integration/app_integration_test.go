package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptlint/internal/core/app"
	"scriptlint/internal/core/config"
	"scriptlint/internal/data/history"
)

const pageDescriptor = `{
  "name": "inventory",
  "pages": [
    {
      "title": "Stock",
      "onLoad": "<%
function load(order) {
  const label = order.customer.address.city.name
  console.log(label)
}
load(null)
%>"
    }
  ],
  "actions": {
    "refresh": "<% let stale = 42 %>"
  }
}
`

const helperScript = `const MAX_ROWS = 200

function formatRow(row, width) {
  return row.name.padEnd(width) + row.count
}

{ maxRows: MAX_ROWS, formatRow: formatRow }
`

func createTestFiles(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "apps"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apps", "inventory.json"), []byte(pageDescriptor), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "format.js"), []byte(helperScript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scriptlint.toml"), []byte(`
version = 1
paths = ["."]

[rules.null-safety]
severity = "error"

[history]
enabled = true
path = "data/state/history.db"
`), 0o644))
}

func TestFullPipelineIntegration(t *testing.T) {
	dir := t.TempDir()
	createTestFiles(t, dir)

	cfg, err := config.Load(filepath.Join(dir, "scriptlint.toml"))
	require.NoError(t, err)
	cfg.Paths = []string{dir}

	store, err := history.Open(cfg.HistoryPath(dir), cfg.History.BusyTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	analyzer, err := app.NewWithDependencies(cfg, app.Dependencies{
		History:     history.NewAdapter(store, dir),
		ProjectRoot: dir,
	})
	require.NoError(t, err)

	ctx := context.Background()
	report, err := analyzer.AnalyzePaths(ctx, cfg.Paths)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.Files)
	assert.Equal(t, 3, report.Stats.Fragments)
	assert.Empty(t, report.ParseFailures)

	byRule := map[string][]int{}
	for _, f := range report.Findings {
		byRule[f.RuleID] = append(byRule[f.RuleID], f.Line)
	}
	assert.Equal(t, map[string][]int{
		"null-safety":       {8},
		"console-statement": {9},
		"unused-variable":   {16},
		"magic-number":      {16},
	}, byRule)

	for _, f := range report.Findings {
		if f.RuleID == "null-safety" {
			assert.Equal(t, "error", string(f.Severity))
			assert.Equal(t, "pages[0].onLoad", f.FieldPath)
		}
	}
	assert.True(t, report.HasErrors())

	require.NoError(t, analyzer.RecordRun(ctx, report))
	runs, err := store.LoadRuns(ctx, dir, time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.Stats.Findings, runs[0].Findings)
	assert.Equal(t, report.RuleCounts(), runs[0].RuleCounts)
}
