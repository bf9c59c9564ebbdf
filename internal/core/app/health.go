package app

import (
	"context"
	"strconv"
	"time"

	"scriptlint/internal/shared/observability"
)

// Health reports the state of the analyzer for the /health endpoint.
func (a *Analyzer) Health(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	status.Components["rules"] = strconv.Itoa(len(a.engine.Enabled())) + " enabled"
	status.Components["ast_cache"] = strconv.Itoa(a.cache.Len()) + " entries"

	if a.history == nil {
		status.Components["history"] = "disabled"
	} else if _, err := a.history.LoadRuns(ctx, time.Now().Add(-time.Minute)); err != nil {
		status.Status = "degraded"
		status.Components["history"] = "error: " + err.Error()
	} else {
		status.Components["history"] = "ok"
	}

	if last := a.LastReport(); last != nil {
		status.Components["last_run"] = last.RunID
		if last.Partial {
			status.Components["last_run"] += " (partial)"
		}
	}
	return status
}
