// Package txflow runs contract writes through a single observable lifecycle:
// idle, submitted, pending, then confirmed or error.
package txflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/wallet"
)

const (
	DefaultResetDelay   = 5 * time.Second
	DefaultPollInterval = 2 * time.Second
)

var ErrNoCall = errors.New("operation has no call")

type Guard interface {
	Guard() (wallet.Snapshot, error)
}

type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error)
}

// Recorder persists lifecycle snapshots that carry a transaction hash.
type Recorder interface {
	RecordTx(ctx context.Context, status *types.TxStatus) error
}

type Metrics interface {
	TxTransition(operation string, state types.TxState)
}

// Operation is one contract write. Build, when set, produces the call once the session is
// guarded. Preflight runs before sending, Refetch once after a successful receipt.
type Operation struct {
	Name      string
	Call      *contract.Call
	Build     func(ctx context.Context) (*contract.Call, error)
	Preflight func() error
	Refetch   func(ctx context.Context, receipt *gethtypes.Receipt) error
}

// Error is returned by Execute for every failed write.
type Error struct {
	Operation string
	Hash      string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	return e.Operation + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type Config struct {
	Session      Guard
	Receipts     ReceiptSource
	Recorder     Recorder
	Metrics      Metrics
	ResetDelay   time.Duration
	PollInterval time.Duration
	Logger       *zap.Logger
}

type Tracker struct {
	guard      Guard
	receipts   ReceiptSource
	recorder   Recorder
	metrics    Metrics
	resetDelay time.Duration
	poll       time.Duration
	lgr        *zap.Logger

	execMu sync.Mutex

	mu      sync.Mutex
	status  types.TxStatus
	gen     uint64
	timer   *time.Timer
	nextSub int
	subs    map[int]func(types.TxStatus)
}

func New(cfg Config) *Tracker {
	t := &Tracker{
		guard:      cfg.Session,
		receipts:   cfg.Receipts,
		recorder:   cfg.Recorder,
		metrics:    cfg.Metrics,
		resetDelay: cfg.ResetDelay,
		poll:       cfg.PollInterval,
		lgr:        cfg.Logger,
		status:     types.TxStatus{State: types.TxIdle},
		subs:       make(map[int]func(types.TxStatus)),
	}
	if t.resetDelay <= 0 {
		t.resetDelay = DefaultResetDelay
	}
	if t.poll <= 0 {
		t.poll = DefaultPollInterval
	}
	if t.lgr == nil {
		t.lgr = zap.NewNop()
	}
	return t
}

func (t *Tracker) Status() types.TxStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Subscribe registers fn for every state change. fn must not call Execute.
func (t *Tracker) Subscribe(fn func(types.TxStatus)) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Execute runs op to completion. It blocks until the receipt arrives or ctx ends,
// one operation at a time.
func (t *Tracker) Execute(ctx context.Context, op Operation) (*gethtypes.Receipt, error) {
	t.execMu.Lock()
	defer t.execMu.Unlock()
	lgr := t.lgr.With(zap.String("method", "Execute"), zap.String("operation", op.Name))

	gen := t.begin()
	snap, err := t.guard.Guard()
	if err != nil {
		return nil, t.fail(ctx, gen, op, nil, "", err)
	}
	if op.Build != nil {
		call, err := op.Build(ctx)
		if err != nil {
			return nil, t.fail(ctx, gen, op, nil, "", err)
		}
		op.Call = call
	}
	if op.Call == nil {
		return nil, t.fail(ctx, gen, op, nil, "", ErrNoCall)
	}
	if op.Preflight != nil {
		if err := op.Preflight(); err != nil {
			return nil, t.fail(ctx, gen, op, nil, "", err)
		}
	}

	from := snap.Signer.Address().Hex()
	hash, err := snap.Signer.SendTransaction(ctx, op.Call)
	if err != nil {
		lgr.Warn("Send transaction failed", zap.Error(err))
		return nil, t.fail(ctx, gen, op, nil, from, err)
	}
	t.set(ctx, gen, types.TxStatus{Operation: op.Name, State: types.TxSubmitted, Hash: hash.Hex(), From: from})
	lgr.Info("Transaction submitted", zap.String("hash", hash.Hex()))

	t.set(ctx, gen, types.TxStatus{Operation: op.Name, State: types.TxPending, Hash: hash.Hex(), From: from})
	receipt, err := t.waitReceipt(ctx, hash)
	if err != nil {
		return nil, t.fail(ctx, gen, op, &hash, from, err)
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		lgr.Warn("Transaction reverted", zap.String("hash", hash.Hex()), zap.Stringer("block", receipt.BlockNumber))
		return receipt, t.fail(ctx, gen, op, &hash, from, ErrReverted)
	}

	if op.Refetch != nil {
		if err := op.Refetch(ctx, receipt); err != nil {
			lgr.Warn("Refetch after confirmation failed", zap.Error(err))
		}
	}
	t.set(ctx, gen, types.TxStatus{Operation: op.Name, State: types.TxConfirmed, Hash: hash.Hex(), From: from})
	t.scheduleReset(gen)
	lgr.Info("Transaction confirmed", zap.String("hash", hash.Hex()))
	return receipt, nil
}

// waitReceipt polls until the receipt exists. There is no deadline besides ctx.
func (t *Tracker) waitReceipt(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	for {
		receipt, err := t.receipts.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.poll):
		}
	}
}

func (t *Tracker) fail(ctx context.Context, gen uint64, op Operation, hash *common.Hash, from string, cause error) error {
	e := &Error{Operation: op.Name, Message: Classify(cause), Cause: cause}
	if hash != nil {
		e.Hash = hash.Hex()
	}
	t.set(ctx, gen, types.TxStatus{Operation: op.Name, State: types.TxError, Hash: e.Hash, From: from, Message: e.Message})
	t.scheduleReset(gen)
	return e
}

// begin stops any pending reset and starts a new generation.
func (t *Tracker) begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	return t.gen
}

func (t *Tracker) set(ctx context.Context, gen uint64, status types.TxStatus) {
	status.UpdatedAt = time.Now().Unix()
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.status = status
	subs := t.subscribers()
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.TxTransition(status.Operation, status.State)
	}
	if t.recorder != nil && status.Hash != "" {
		if err := t.recorder.RecordTx(ctx, &status); err != nil {
			t.lgr.Warn("Cannot record transaction status", zap.String("hash", status.Hash), zap.Error(err))
		}
	}
	for _, fn := range subs {
		fn(status)
	}
}

func (t *Tracker) subscribers() []func(types.TxStatus) {
	subs := make([]func(types.TxStatus), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (t *Tracker) scheduleReset(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.timer = time.AfterFunc(t.resetDelay, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.status = types.TxStatus{State: types.TxIdle, UpdatedAt: time.Now().Unix()}
		t.timer = nil
		status := t.status
		subs := t.subscribers()
		t.mu.Unlock()
		if t.metrics != nil {
			t.metrics.TxTransition("", types.TxIdle)
		}
		for _, fn := range subs {
			fn(status)
		}
	})
}
