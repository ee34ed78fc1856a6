package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("CHAIN_RPC_URL", "http://127.0.0.1:8545")
	t.Setenv("CHAIN_ID", "31337")
	t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
}

func TestNew_Defaults(t *testing.T) {
	setRequired(t)

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), c.ChainID)
	assert.Equal(t, "Chain 31337", c.ChainName)
	assert.Equal(t, ModeDev, c.ServerMode)
	assert.Equal(t, BlobDriverIPFS, c.BlobDriver)
	assert.Equal(t, 30*time.Second, c.RefreshInterval)
	assert.Equal(t, 5*time.Second, c.TxResetDelay)
	assert.Equal(t, 2*time.Second, c.ReceiptPollInterval)
	assert.Equal(t, 8, c.FetchWorkers)
}

func TestNew_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TX_RESET_DELAY", "1500ms")
	t.Setenv("FETCH_WORKERS", "3")
	t.Setenv("BLOB_DRIVER", BlobDriverS3)
	t.Setenv("CACHE_EXPIRED_TIME", "1m")

	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, c.TxResetDelay)
	assert.Equal(t, 3, c.FetchWorkers)
	assert.Equal(t, BlobDriverS3, c.BlobDriver)
	assert.Equal(t, time.Minute, c.CacheExpiredTime)
}

func TestNew_Required(t *testing.T) {
	setRequired(t)
	t.Setenv("CONTRACT_ADDRESS", "")
	_, err := New()
	assert.ErrorIs(t, err, ErrMissingContract)

	setRequired(t)
	t.Setenv("CHAIN_ID", "abc")
	_, err = New()
	assert.ErrorIs(t, err, ErrMissingChainID)
}
