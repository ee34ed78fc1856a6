package wallet

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/types"
)

// Well-known development key, never funded outside local chains.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type fakeBackend struct {
	url     string
	chainID uint64
	sent    []*gethtypes.Transaction
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(b.chainID), nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1e9), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *gethtypes.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*gethtypes.Receipt, error) {
	return nil, ethereum.NotFound
}

func (b *fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

// nodeChains is the chain id each fake rpc url serves.
var nodeChains = map[string]uint64{
	"http://127.0.0.1:8545": 1337,
	"http://other:8545":     10,
	"http://mainnet:8545":   1,
}

func fakeDial(backends map[string]*fakeBackend) DialFunc {
	return func(_ context.Context, url string) (Backend, error) {
		b := &fakeBackend{url: url, chainID: nodeChains[url]}
		backends[url] = b
		return b, nil
	}
}

func newTestLocalProvider(t *testing.T) (*LocalProvider, map[string]*fakeBackend) {
	backends := map[string]*fakeBackend{}
	p, err := NewLocalProvider(context.Background(), "0x"+testKey, fakeDial(backends), testChain)
	require.NoError(t, err)
	return p, backends
}

func TestLocalProvider_SwitchUnknownChain(t *testing.T) {
	p, backends := newTestLocalProvider(t)
	ctx := context.Background()

	err := p.SwitchChain(ctx, 10)
	assert.True(t, HasCode(err, CodeUnrecognizedChain))

	events := make(chan ProviderEvent, 1)
	p.Subscribe(events)

	other := ChainParams{ChainID: 10, ChainName: "Other", RPCURLs: []string{"http://other:8545"}}
	require.NoError(t, p.AddChain(ctx, other))
	require.NoError(t, p.SwitchChain(ctx, 10))

	id, err := p.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), id)
	assert.Contains(t, backends, "http://other:8545")
	assert.Equal(t, ProviderEvent{Kind: ChainChanged, ChainID: 10}, <-events)
}

func TestLocalProvider_AddChainInvalid(t *testing.T) {
	p, _ := newTestLocalProvider(t)
	err := p.AddChain(context.Background(), ChainParams{ChainID: 10})
	assert.True(t, HasCode(err, CodeInvalidParams))
}

func TestLocalProvider_SignerSendsSignedTx(t *testing.T) {
	p, backends := newTestLocalProvider(t)
	accounts, err := p.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	_, err = p.Signer(testAccount)
	assert.True(t, HasCode(err, CodeUnauthorized))

	signer, err := p.Signer(accounts[0])
	require.NoError(t, err)

	to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	hash, err := signer.SendTransaction(context.Background(), &contract.Call{To: to, Data: []byte{1, 2, 3, 4}, Value: big.NewInt(5)})
	require.NoError(t, err)

	b := backends[testChain.RPCURLs[0]]
	require.Len(t, b.sent, 1)
	tx := b.sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, to, *tx.To())
	assert.Equal(t, 0, tx.ChainId().Cmp(big.NewInt(int64(testChain.ChainID))))

	from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, p.Address(), from)
	assert.Equal(t, signer.Address(), from)
}

func TestLocalProvider_ReportsNodeChain(t *testing.T) {
	// configured as the local chain, but the rpc url points at another network
	misconfigured := testChain
	misconfigured.RPCURLs = []string{"http://mainnet:8545"}
	p, err := NewLocalProvider(context.Background(), "0x"+testKey, fakeDial(map[string]*fakeBackend{}), misconfigured)
	require.NoError(t, err)

	id, err := p.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	err = p.SwitchChain(context.Background(), testChain.ChainID)
	assert.True(t, HasCode(err, CodeChainDisconnected))

	s := NewSession(Config{Provider: p, Chain: misconfigured})
	_, err = s.Connect(context.Background())
	assert.ErrorIs(t, err, types.ErrNetworkSwitchFailed)
	_, err = s.Guard()
	assert.ErrorIs(t, err, types.ErrNotConnected)
}
