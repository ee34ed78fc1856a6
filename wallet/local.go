package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/bountyboard/bounty-backend/contract"
)

// Backend is the chain client a LocalProvider signs and sends through.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type DialFunc func(ctx context.Context, rawURL string) (Backend, error)

// DialEthClient dials a JSON-RPC endpoint with ethclient.
func DialEthClient(ctx context.Context, rawURL string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LocalProvider is a provider backed by a single private key. It behaves like an
// injected wallet that only knows the networks registered with it.
type LocalProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
	dial    DialFunc

	mu       sync.RWMutex
	networks map[uint64]ChainParams
	current  uint64
	backend  Backend
	nextSub  int
	subs     map[int]chan<- ProviderEvent
}

// NewLocalProvider loads hexKey and connects to the first network, which becomes the active one.
func NewLocalProvider(ctx context.Context, hexKey string, dial DialFunc, networks ...ChainParams) (*LocalProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if len(networks) == 0 {
		return nil, fmt.Errorf("at least one network is required")
	}
	if dial == nil {
		dial = DialEthClient
	}
	p := &LocalProvider{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		dial:     dial,
		networks: make(map[uint64]ChainParams),
		subs:     make(map[int]chan<- ProviderEvent),
	}
	for _, n := range networks {
		p.networks[n.ChainID] = n
	}
	// the node decides the active chain, so a misconfigured rpc url shows up as a wrong network
	backend, nodeChainID, err := p.connect(ctx, networks[0])
	if err != nil {
		return nil, err
	}
	p.current = nodeChainID
	p.backend = backend
	return p, nil
}

// connect dials the first rpc url of params and returns the chain id the node reports.
func (p *LocalProvider) connect(ctx context.Context, params ChainParams) (Backend, uint64, error) {
	if len(params.RPCURLs) == 0 {
		return nil, 0, &ProviderError{Code: CodeInvalidParams, Message: "network has no rpc url"}
	}
	backend, err := p.dial(ctx, params.RPCURLs[0])
	if err != nil {
		return nil, 0, fmt.Errorf("dial %s: %w", params.RPCURLs[0], err)
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("chain id of %s: %w", params.RPCURLs[0], err)
	}
	if !id.IsUint64() {
		return nil, 0, fmt.Errorf("chain id of %s out of range: %s", params.RPCURLs[0], id)
	}
	return backend, id.Uint64(), nil
}

func (p *LocalProvider) Address() common.Address {
	return p.address
}

func (p *LocalProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return p.Accounts(ctx)
}

func (p *LocalProvider) Accounts(_ context.Context) ([]string, error) {
	return []string{p.address.Hex()}, nil
}

// ChainID reports the chain of the connected node, which may differ from the configured one.
func (p *LocalProvider) ChainID(_ context.Context) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, nil
}

func (p *LocalProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	p.mu.RLock()
	params, ok := p.networks[chainID]
	current := p.current
	p.mu.RUnlock()
	if !ok {
		return &ProviderError{Code: CodeUnrecognizedChain, Message: fmt.Sprintf("unrecognized chain id %d", chainID)}
	}
	if chainID == current {
		return nil
	}
	backend, nodeChainID, err := p.connect(ctx, params)
	if err != nil {
		return err
	}
	if nodeChainID != chainID {
		return &ProviderError{Code: CodeChainDisconnected, Message: fmt.Sprintf("rpc %s serves chain %d, not %d", params.RPCURLs[0], nodeChainID, chainID)}
	}
	p.mu.Lock()
	p.current = chainID
	p.backend = backend
	p.mu.Unlock()
	p.emit(ProviderEvent{Kind: ChainChanged, ChainID: chainID})
	return nil
}

func (p *LocalProvider) AddChain(_ context.Context, params ChainParams) error {
	if params.ChainID == 0 || len(params.RPCURLs) == 0 {
		return &ProviderError{Code: CodeInvalidParams, Message: "chain id and rpc url are required"}
	}
	p.mu.Lock()
	p.networks[params.ChainID] = params
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) Signer(account string) (Signer, error) {
	if !common.IsHexAddress(account) || common.HexToAddress(account) != p.address {
		return nil, &ProviderError{Code: CodeUnauthorized, Message: "account is not managed by this wallet"}
	}
	return &localSigner{p: p}, nil
}

func (p *LocalProvider) Subscribe(ch chan<- ProviderEvent) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *LocalProvider) emit(ev ProviderEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// TransactionReceipt reads receipts from the active network.
func (p *LocalProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	backend, _ := p.active()
	return backend.TransactionReceipt(ctx, hash)
}

// CallContract runs read-only calls against the active network.
func (p *LocalProvider) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	backend, _ := p.active()
	return backend.CallContract(ctx, msg, blockNumber)
}

func (p *LocalProvider) active() (Backend, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.backend, p.current
}

type localSigner struct {
	p *LocalProvider
}

func (s *localSigner) Address() common.Address {
	return s.p.address
}

func (s *localSigner) SendTransaction(ctx context.Context, call *contract.Call) (common.Hash, error) {
	backend, chainID := s.p.active()
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	nonce, err := backend.PendingNonceAt(ctx, s.p.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}
	to := call.To
	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: s.p.address, To: &to, Value: value, Data: call.Data})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     call.Data,
	})
	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), s.p.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}
