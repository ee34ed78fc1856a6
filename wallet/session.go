package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

// Snapshot is an immutable view of the session handed to subscribers.
// Generation changes on every full reset, so holders can tell a rebuilt session apart.
type Snapshot struct {
	Address    string
	ChainID    uint64
	Connected  bool
	Signer     Signer
	Generation uint64
}

type Config struct {
	Provider Provider
	Chain    ChainParams
	Logger   *zap.Logger
}

type Session struct {
	provider Provider
	chain    ChainParams
	lgr      *zap.Logger

	connectMu sync.Mutex

	mu      sync.RWMutex
	snap    Snapshot
	nextSub int
	subs    map[int]func(Snapshot)
	reloads map[int]func()
}

func NewSession(cfg Config) *Session {
	lgr := cfg.Logger
	if lgr == nil {
		lgr = zap.NewNop()
	}
	return &Session{
		provider: cfg.Provider,
		chain:    cfg.Chain,
		lgr:      lgr,
		subs:     make(map[int]func(Snapshot)),
		reloads:  make(map[int]func()),
	}
}

func (s *Session) Chain() ChainParams {
	return s.chain
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn for every new snapshot.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	return s.register(func(id int) { s.subs[id] = fn }, func(id int) { delete(s.subs, id) })
}

// OnReload registers fn for full resets caused by a chain change.
func (s *Session) OnReload(fn func()) func() {
	return s.register(func(id int) { s.reloads[id] = fn }, func(id int) { delete(s.reloads, id) })
}

func (s *Session) register(add, remove func(id int)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	add(id)
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			remove(id)
			s.mu.Unlock()
		})
	}
}

// Connect requests accounts from the provider and moves the wallet onto the configured chain.
func (s *Session) Connect(ctx context.Context) (Snapshot, error) {
	lgr := s.lgr.With(zap.String("method", "Connect"))
	if s.provider == nil {
		return Snapshot{}, types.ErrNoProvider
	}
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		if HasCode(err, CodeUserRejected) {
			return Snapshot{}, types.ErrUserRejected.With(err, "")
		}
		lgr.Warn("Cannot request accounts", zap.Error(err))
		return Snapshot{}, types.ErrConnection.With(err, "failed to connect wallet")
	}
	if len(accounts) == 0 {
		return Snapshot{}, types.ErrConnection.With(nil, "wallet returned no accounts")
	}
	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return Snapshot{}, types.ErrConnection.With(err, "cannot read wallet network")
	}
	if chainID != s.chain.ChainID {
		lgr.Info("Switching wallet network", zap.Uint64("from", chainID), zap.Uint64("to", s.chain.ChainID))
		if err := s.ensureChain(ctx); err != nil {
			lgr.Warn("Cannot switch wallet network", zap.Error(err))
			return Snapshot{}, err
		}
		chainID = s.chain.ChainID
	}
	snap, err := s.build(accounts[0], chainID)
	if err != nil {
		return Snapshot{}, err
	}
	s.publish(snap, false)
	lgr.Info("Wallet connected", zap.String("address", snap.Address), zap.Uint64("chainId", chainID))
	return snap, nil
}

// ensureChain switches to the configured chain, adding it first when the wallet does not know it.
func (s *Session) ensureChain(ctx context.Context) error {
	err := s.provider.SwitchChain(ctx, s.chain.ChainID)
	if err == nil {
		return nil
	}
	if !HasCode(err, CodeUnrecognizedChain) {
		return types.ErrNetworkSwitchFailed.With(err, "failed to switch network to %s", s.chain.ChainName)
	}
	if err := s.provider.AddChain(ctx, s.chain); err != nil {
		return types.ErrNetworkAddFailed.With(err, "failed to add network %s", s.chain.ChainName)
	}
	if err := s.provider.SwitchChain(ctx, s.chain.ChainID); err != nil {
		return types.ErrNetworkSwitchFailed.With(err, "failed to switch network to %s", s.chain.ChainName)
	}
	return nil
}

func (s *Session) build(account string, chainID uint64) (Snapshot, error) {
	signer, err := s.provider.Signer(account)
	if err != nil {
		return Snapshot{}, types.ErrConnection.With(err, "cannot obtain signer for %s", account)
	}
	return Snapshot{
		Address:   common.HexToAddress(account).Hex(),
		ChainID:   chainID,
		Connected: true,
		Signer:    signer,
	}, nil
}

// Disconnect drops the session. It never fails.
func (s *Session) Disconnect() {
	s.mu.RLock()
	connected := s.snap.Connected
	s.mu.RUnlock()
	if !connected {
		return
	}
	s.publish(Snapshot{}, false)
}

// Guard returns the current snapshot when writes are allowed.
func (s *Session) Guard() (Snapshot, error) {
	snap := s.Snapshot()
	if !snap.Connected || snap.Signer == nil {
		return Snapshot{}, types.ErrNotConnected
	}
	if snap.ChainID != s.chain.ChainID {
		return Snapshot{}, types.ErrWrongNetwork.With(nil, "wallet is on chain %d, switch to %s (%d)", snap.ChainID, s.chain.ChainName, s.chain.ChainID)
	}
	return snap, nil
}

// publish installs snap and notifies subscribers. A reset also bumps the generation
// and runs the reload listeners before the new snapshot goes out.
func (s *Session) publish(snap Snapshot, reset bool) {
	s.mu.Lock()
	snap.Generation = s.snap.Generation
	if reset {
		snap.Generation++
	}
	s.snap = snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	var reloads []func()
	if reset {
		for _, fn := range s.reloads {
			reloads = append(reloads, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range reloads {
		fn()
	}
	for _, fn := range subs {
		fn(snap)
	}
}

// Run follows provider events until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	if s.provider == nil {
		return types.ErrNoProvider
	}
	events := make(chan ProviderEvent, 16)
	unsubscribe := s.provider.Subscribe(events)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) handle(ctx context.Context, ev ProviderEvent) {
	lgr := s.lgr.With(zap.String("method", "handle"))
	switch ev.Kind {
	case AccountsChanged:
		if len(ev.Accounts) == 0 {
			lgr.Info("Wallet accounts cleared, disconnecting")
			s.Disconnect()
			return
		}
		chainID, err := s.provider.ChainID(ctx)
		if err != nil {
			lgr.Warn("Cannot read wallet network", zap.Error(err))
			s.Disconnect()
			return
		}
		snap, err := s.build(ev.Accounts[0], chainID)
		if err != nil {
			lgr.Warn("Cannot rebuild session", zap.Error(err))
			s.Disconnect()
			return
		}
		s.publish(snap, false)
	case ChainChanged:
		lgr.Info("Wallet network changed, resetting session", zap.Uint64("chainId", ev.ChainID))
		snap := Snapshot{}
		accounts, err := s.provider.Accounts(ctx)
		if err != nil {
			lgr.Warn("Cannot read wallet accounts", zap.Error(err))
		} else if len(accounts) > 0 {
			if snap, err = s.build(accounts[0], ev.ChainID); err != nil {
				lgr.Warn("Cannot rebuild session", zap.Error(err))
				snap = Snapshot{}
			}
		}
		s.publish(snap, true)
	}
}
