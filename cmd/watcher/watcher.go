package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/readmodel"
	"github.com/bountyboard/bounty-backend/types"
)

type refresher interface {
	Refresh(ctx context.Context) (readmodel.Snapshot, error)
}

type statusWriter interface {
	UpdateServerStatus(ctx context.Context, serverStatus *types.ServerStatus) error
}

type refreshRecorder interface {
	RecordRefreshTime(d time.Duration, bounties int)
}

type watcher struct {
	store    refresher
	cache    statusWriter
	metrics  refreshRecorder
	chainID  uint64
	contract string
	lgr      *zap.Logger

	mu      sync.Mutex
	expired map[uint64]bool
}

func newWatcher(store refresher, cache statusWriter, metrics refreshRecorder, chainID uint64, contract string, lgr *zap.Logger) *watcher {
	return &watcher{
		store:    store,
		cache:    cache,
		metrics:  metrics,
		chainID:  chainID,
		contract: contract,
		lgr:      lgr.With(zap.String("service", "watcher")),
		expired:  make(map[uint64]bool),
	}
}

// refresh rebuilds the read model and publishes the server status. It returns
// the ids of active bounties whose deadline passed since the previous run.
func (w *watcher) refresh(ctx context.Context) ([]uint64, error) {
	lgr := w.lgr.With(zap.String("method", "refresh"))
	start := time.Now()
	snap, err := w.store.Refresh(ctx)
	if err != nil {
		lgr.Warn("Cannot refresh read model", zap.Error(err))
		return nil, err
	}
	if w.metrics != nil {
		w.metrics.RecordRefreshTime(time.Since(start), len(snap.Bounties))
	}

	w.mu.Lock()
	var newlyExpired []uint64
	for _, b := range snap.Bounties {
		if b.Status != types.BountyActive || !b.Expired || w.expired[b.ID] {
			continue
		}
		w.expired[b.ID] = true
		newlyExpired = append(newlyExpired, b.ID)
	}
	w.mu.Unlock()
	for _, id := range newlyExpired {
		lgr.Info("Bounty deadline passed", zap.Uint64("bountyId", id))
	}

	status := &types.ServerStatus{
		Status:          "ONLINE",
		ServerVersion:   serverVersion,
		ChainID:         w.chainID,
		ContractAddress: w.contract,
		BountyCount:     uint64(len(snap.Bounties)),
		LastRefresh:     snap.UpdatedAt.Unix(),
	}
	if err := w.cache.UpdateServerStatus(ctx, status); err != nil {
		lgr.Warn("Cannot update server status", zap.Error(err))
	}
	lgr.Debug("Refreshed", zap.Int("bounties", len(snap.Bounties)), zap.Duration("TimeConsumed", time.Since(start)))
	return newlyExpired, nil
}
