// Package readmodel builds the bounty and submission views served to clients.
// Writes never patch it in place: callers invalidate and refetch.
package readmodel

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
)

const DefaultWorkers = 8

// Cache stores raw contract views between refreshes.
type Cache interface {
	Bounties(ctx context.Context) ([]*types.Bounty, error)
	UpdateBounties(ctx context.Context, bounties []*types.Bounty) error
	BountyDetails(ctx context.Context, id uint64) (*types.Bounty, error)
	UpdateBountyDetails(ctx context.Context, bounty *types.Bounty) error
	Invalidate(ctx context.Context) error
}

type Metrics interface {
	ReadError(operation string)
	SkippedRecord(kind string)
}

// Snapshot is published after every refresh.
type Snapshot struct {
	Bounties  []*types.Bounty
	UpdatedAt time.Time
}

type Config struct {
	Contract contract.Client
	Cache    Cache
	Workers  int
	Decimals int32
	Now      func() time.Time
	Metrics  Metrics
	Logger   *zap.Logger
}

type Store struct {
	contract contract.Client
	cache    Cache
	workers  int
	decimals int32
	now      func() time.Time
	metrics  Metrics
	lgr      *zap.Logger

	mu      sync.RWMutex
	snap    Snapshot
	nextSub int
	subs    map[int]func(Snapshot)
}

func New(cfg Config) *Store {
	s := &Store{
		contract: cfg.Contract,
		cache:    cfg.Cache,
		workers:  cfg.Workers,
		decimals: cfg.Decimals,
		now:      cfg.Now,
		metrics:  cfg.Metrics,
		lgr:      cfg.Logger,
		subs:     make(map[int]func(Snapshot)),
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	if s.decimals == 0 {
		s.decimals = utils.NativeDecimals
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.lgr == nil {
		s.lgr = zap.NewNop()
	}
	return s
}

// ListBounties returns every bounty in ascending id order. Bounties that fail to load are skipped.
func (s *Store) ListBounties(ctx context.Context) ([]*types.Bounty, error) {
	lgr := s.lgr.With(zap.String("method", "ListBounties"))
	if s.cache != nil {
		if cached, err := s.cache.Bounties(ctx); err == nil {
			return normalizeAll(cached, s.decimals, s.now()), nil
		}
	}

	count, err := s.contract.BountyCount(ctx)
	if err != nil {
		s.readError("bountyCount")
		return nil, err
	}
	bounties, err := fetchAll(ctx, s.workers, count, func(ctx context.Context, id uint64) (*types.Bounty, error) {
		return s.contract.Bounty(ctx, id)
	}, func(id uint64, err error) {
		lgr.Warn("Skipping bounty", zap.Uint64("id", id), zap.Error(err))
		s.skipped("bounty")
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.UpdateBounties(ctx, bounties); err != nil {
			lgr.Warn("Cannot cache bounties", zap.Error(err))
		}
	}
	return normalizeAll(bounties, s.decimals, s.now()), nil
}

// BountyDetails returns one bounty with all of its submissions.
func (s *Store) BountyDetails(ctx context.Context, id uint64) (*types.Bounty, error) {
	b, err := s.details(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalizeBounty(b, s.decimals, s.now()), nil
}

// BountyDetailsFor is BountyDetails with the viewer's vote state on every submission.
func (s *Store) BountyDetailsFor(ctx context.Context, id uint64, viewer string) (*types.Bounty, error) {
	lgr := s.lgr.With(zap.String("method", "BountyDetailsFor"))
	b, err := s.BountyDetails(ctx, id)
	if err != nil || viewer == "" {
		return b, err
	}
	_, err = fetchAll(ctx, s.workers, uint64(len(b.Submissions)), func(ctx context.Context, i uint64) (bool, error) {
		voted, err := s.contract.HasVoted(ctx, id, b.Submissions[i].ID, viewer)
		if err != nil {
			return false, err
		}
		b.Submissions[i].HasVoted = &voted
		return voted, nil
	}, func(i uint64, err error) {
		lgr.Warn("Cannot read vote state", zap.Uint64("bountyId", id), zap.Uint64("index", i), zap.Error(err))
		s.skipped("vote")
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Submissions lists the normalized submissions of a bounty.
func (s *Store) Submissions(ctx context.Context, bountyID uint64) ([]*types.Submission, error) {
	b, err := s.BountyDetails(ctx, bountyID)
	if err != nil {
		return nil, err
	}
	if b.Submissions == nil {
		return []*types.Submission{}, nil
	}
	return b.Submissions, nil
}

func (s *Store) details(ctx context.Context, id uint64) (*types.Bounty, error) {
	lgr := s.lgr.With(zap.String("method", "BountyDetails"), zap.Uint64("id", id))
	if s.cache != nil {
		if cached, err := s.cache.BountyDetails(ctx, id); err == nil {
			return cached, nil
		}
	}

	count, err := s.contract.BountyCount(ctx)
	if err != nil {
		s.readError("bountyCount")
		return nil, err
	}
	if id >= count {
		return nil, types.ErrNotFound.With(nil, "bounty %d not found", id)
	}
	b, err := s.contract.Bounty(ctx, id)
	if err != nil {
		s.readError("bounty")
		return nil, err
	}
	subCount, err := s.contract.SubmissionCount(ctx, id)
	if err != nil {
		s.readError("submissionCount")
		return nil, err
	}
	subs, err := fetchAll(ctx, s.workers, subCount, func(ctx context.Context, i uint64) (*types.Submission, error) {
		return s.contract.Submission(ctx, id, i)
	}, func(i uint64, err error) {
		lgr.Warn("Skipping submission", zap.Uint64("index", i), zap.Error(err))
		s.skipped("submission")
	})
	if err != nil {
		return nil, err
	}
	b.Submissions = subs
	if s.cache != nil {
		if err := s.cache.UpdateBountyDetails(ctx, b); err != nil {
			lgr.Warn("Cannot cache bounty details", zap.Error(err))
		}
	}
	return b, nil
}

// UserBounties returns the bounties created by user, skipping the ones that fail to load.
func (s *Store) UserBounties(ctx context.Context, user string) ([]*types.Bounty, error) {
	lgr := s.lgr.With(zap.String("method", "UserBounties"))
	ids, err := s.contract.UserBounties(ctx, user)
	if err != nil {
		s.readError("userBounties")
		return nil, err
	}
	bounties, err := fetchAll(ctx, s.workers, uint64(len(ids)), func(ctx context.Context, i uint64) (*types.Bounty, error) {
		return s.contract.Bounty(ctx, ids[i])
	}, func(i uint64, err error) {
		lgr.Warn("Skipping bounty", zap.Uint64("id", ids[i]), zap.Error(err))
		s.skipped("bounty")
	})
	if err != nil {
		return nil, err
	}
	return normalizeAll(bounties, s.decimals, s.now()), nil
}

// UserSubmissions returns the submissions made by user, skipping the ones that fail to load.
func (s *Store) UserSubmissions(ctx context.Context, user string) ([]*types.Submission, error) {
	lgr := s.lgr.With(zap.String("method", "UserSubmissions"))
	refs, err := s.contract.UserSubmissions(ctx, user)
	if err != nil {
		s.readError("userSubmissions")
		return nil, err
	}
	subs, err := fetchAll(ctx, s.workers, uint64(len(refs)), func(ctx context.Context, i uint64) (*types.Submission, error) {
		return s.contract.Submission(ctx, refs[i].BountyID, refs[i].Index)
	}, func(i uint64, err error) {
		lgr.Warn("Skipping submission", zap.Uint64("bountyId", refs[i].BountyID), zap.Uint64("index", refs[i].Index), zap.Error(err))
		s.skipped("submission")
	})
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		normalizeSubmission(sub, s.decimals)
	}
	return subs, nil
}

func (s *Store) UserReputation(ctx context.Context, user string) (uint64, error) {
	rep, err := s.contract.UserReputation(ctx, user)
	if err != nil {
		s.readError("userReputation")
		return 0, err
	}
	return rep, nil
}

// Invalidate drops every cached view.
func (s *Store) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

// Refresh invalidates, reloads the bounty list and publishes the new snapshot.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	if err := s.Invalidate(ctx); err != nil {
		s.lgr.Warn("Cannot invalidate cache", zap.Error(err))
	}
	bounties, err := s.ListBounties(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Bounties: bounties, UpdatedAt: s.now()}

	s.mu.Lock()
	s.snap = snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
	return snap, nil
}

// Latest returns the last published snapshot.
func (s *Store) Latest() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) readError(op string) {
	if s.metrics != nil {
		s.metrics.ReadError(op)
	}
}

func (s *Store) skipped(kind string) {
	if s.metrics != nil {
		s.metrics.SkippedRecord(kind)
	}
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
