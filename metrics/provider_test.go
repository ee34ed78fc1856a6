package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountyboard/bounty-backend/types"
)

func TestProvider_Counters(t *testing.T) {
	p := New()

	p.ReadError("bounty")
	p.ReadError("bounty")
	p.SkippedRecord("submission")
	p.TxTransition("createBounty", types.TxSubmitted)
	p.TxTransition("createBounty", types.TxConfirmed)
	p.RecordAnalysis(types.AnalysisKindQuality, time.Second, nil)
	p.RecordAnalysis(types.AnalysisKindQuality, time.Second, errors.New("timeout"))
	p.RecordRefreshTime(150*time.Millisecond, 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.readErrors.WithLabelValues("bounty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.skippedRecords.WithLabelValues("submission")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.txTransitions.WithLabelValues("createBounty", "confirmed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.analyses.WithLabelValues("quality", "error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(p.bounties))

	n, err := testutil.GatherAndCount(p.Registry(), "bounty_tx_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProvider_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ReadError("count")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.readErrors.WithLabelValues("count")))
}
