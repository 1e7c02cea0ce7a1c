package index

import (
	"context"
	"time"

	"growth-calculator/internal/types"

	log "github.com/sirupsen/logrus"
)

// StartRefresher resolves the index list right away and then every interval until ctx is
// done, so expired records are refilled before a page asks for them. A
// non-positive interval disables it.
func StartRefresher(ctx context.Context, a *Aggregator, spec types.IndexSpec, interval time.Duration) {
	if interval <= 0 {
		log.Debug("Index refresher disabled")
		return
	}
	go refreshLoop(ctx, a, spec, interval)
	log.Infof("Index refresher started, interval %s", interval)
}

func refreshLoop(ctx context.Context, a *Aggregator, spec types.IndexSpec, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		refreshOnce(ctx, a, spec)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func refreshOnce(ctx context.Context, a *Aggregator, spec types.IndexSpec) {
	var available int
	for _, o := range a.ResolveAll(ctx, spec) {
		if o.Available() {
			available++
			continue
		}
		log.WithFields(log.Fields{"symbol": o.Symbol, "status": o.Status}).Warn("index not refreshed")
	}
	log.Debugf("Refreshed %d of %d indices", available, len(spec))
}
