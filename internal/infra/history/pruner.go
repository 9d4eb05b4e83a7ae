package history

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes old records based on the retention policy.
type Pruner struct {
	store     Store
	retention time.Duration
}

// NewPruner creates a Pruner over the given store.
func NewPruner(store Store, retention time.Duration) *Pruner {
	return &Pruner{store: store, retention: retention}
}

// Start runs the prune loop until the context ends. A non-positive
// retention disables pruning.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return
	}

	interval := min(p.retention/10, time.Hour)
	interval = max(interval, time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

// PruneOnce applies the retention policy a single time.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	return p.store.Prune(ctx, time.Now().Add(-p.retention))
}

func (p *Pruner) prune(ctx context.Context) {
	n, err := p.PruneOnce(ctx)
	if err != nil {
		slog.Error("failed to prune history", "error", err)
		return
	}
	if n > 0 {
		slog.Info("pruned history records", "count", n, "retention", p.retention)
	}
}
