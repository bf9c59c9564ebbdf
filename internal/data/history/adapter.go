package history

import (
	"context"
	"time"
)

// Adapter bridges Store to the core HistoryStore port for one project.
type Adapter struct {
	store      *Store
	projectKey string
}

func NewAdapter(store *Store, projectKey string) *Adapter {
	return &Adapter{store: store, projectKey: projectKey}
}

func (a *Adapter) SaveRun(ctx context.Context, run Run) error {
	return a.store.SaveRun(ctx, a.projectKey, run)
}

func (a *Adapter) LoadRuns(ctx context.Context, since time.Time) ([]Run, error) {
	return a.store.LoadRuns(ctx, a.projectKey, since)
}

func (a *Adapter) Close() error {
	return a.store.Close()
}
