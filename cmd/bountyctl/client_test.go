package main

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/readmodel"
	"github.com/bountyboard/bounty-backend/txflow"
	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
	"github.com/bountyboard/bounty-backend/wallet"
)

const contractAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

type fakeReader struct {
	bounties  map[uint64]*types.Bounty
	viewer    string
	refreshes int
}

func (f *fakeReader) ListBounties(context.Context) ([]*types.Bounty, error) {
	return nil, nil
}

func (f *fakeReader) BountyDetails(_ context.Context, id uint64) (*types.Bounty, error) {
	b, ok := f.bounties[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return b, nil
}

func (f *fakeReader) BountyDetailsFor(ctx context.Context, id uint64, viewer string) (*types.Bounty, error) {
	f.viewer = viewer
	return f.BountyDetails(ctx, id)
}

func (f *fakeReader) Refresh(context.Context) (readmodel.Snapshot, error) {
	f.refreshes++
	return readmodel.Snapshot{}, nil
}

// fakeExecutor runs the build, preflight and refetch hooks the way the tracker does, without a chain.
type fakeExecutor struct {
	ops  []txflow.Operation
	logs []*gethtypes.Log
}

func (f *fakeExecutor) fail(op txflow.Operation, err error) error {
	f.ops = append(f.ops, op)
	return &txflow.Error{Operation: op.Name, Message: txflow.Classify(err), Cause: err}
}

func (f *fakeExecutor) Execute(ctx context.Context, op txflow.Operation) (*gethtypes.Receipt, error) {
	if op.Build != nil {
		call, err := op.Build(ctx)
		if err != nil {
			return nil, f.fail(op, err)
		}
		op.Call = call
	}
	if op.Preflight != nil {
		if err := op.Preflight(); err != nil {
			return nil, f.fail(op, err)
		}
	}
	f.ops = append(f.ops, op)
	receipt := &gethtypes.Receipt{Status: gethtypes.ReceiptStatusSuccessful, Logs: f.logs, BlockNumber: big.NewInt(1)}
	if op.Refetch != nil {
		_ = op.Refetch(ctx, receipt)
	}
	return receipt, nil
}

var testNow = time.Unix(1_800_000_000, 0)

func newTestClient(t *testing.T, bounties map[uint64]*types.Bounty) (*client, *fakeReader, *fakeExecutor) {
	t.Helper()
	calls, err := contract.NewCalls(contractAddr)
	require.NoError(t, err)
	r := &fakeReader{bounties: bounties}
	x := &fakeExecutor{}
	return &client{
		calls:    calls,
		reader:   r,
		tx:       x,
		decimals: 18,
		now:      func() time.Time { return testNow },
		lgr:      zap.NewNop(),
	}, r, x
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var txErr *txflow.Error
	require.True(t, errors.As(err, &txErr), "want lifecycle error, got %v", err)
	return txErr.Message
}

func TestCreateBounty(t *testing.T) {
	c, r, x := newTestClient(t, nil)
	topic := crypto.Keccak256Hash([]byte("BountyCreated(uint256,address,uint256,uint256)"))
	x.logs = []*gethtypes.Log{{
		Address: common.HexToAddress(contractAddr),
		Topics:  []common.Hash{topic, common.BigToHash(big.NewInt(5)), common.Hash{}},
	}}

	id, _, err := c.CreateBounty(context.Background(), BountyDraft{
		Title:    "Logo",
		Reward:   "1.5",
		Deadline: testNow.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
	require.Len(t, x.ops, 1)
	assert.Equal(t, contract.MethodCreateBounty, x.ops[0].Name)
	assert.Equal(t, "1500000000000000000", x.ops[0].Call.Value.String())
	assert.Equal(t, 1, r.refreshes)
}

func TestCreateBounty_DeadlineInPast(t *testing.T) {
	c, r, _ := newTestClient(t, nil)
	_, _, err := c.CreateBounty(context.Background(), BountyDraft{
		Title:    "Logo",
		Reward:   "1",
		Deadline: testNow.Add(-time.Hour),
	})
	assert.Equal(t, txflow.MsgDeadlineInPast, messageOf(t, err))
	assert.Equal(t, 0, r.refreshes)
}

func TestCreateBounty_InvalidInput(t *testing.T) {
	c, _, x := newTestClient(t, nil)
	_, _, err := c.CreateBounty(context.Background(), BountyDraft{Title: "Logo", Reward: "abc", Deadline: testNow.Add(time.Hour)})
	assert.Equal(t, "Invalid amount: invalid amount", messageOf(t, err))
	assert.ErrorIs(t, err, utils.ErrInvalidAmount)

	_, _, err = c.CreateBounty(context.Background(), BountyDraft{Reward: "1", Deadline: testNow.Add(time.Hour)})
	assert.Equal(t, "A title is required", messageOf(t, err))

	_, _, err = c.CreateBounty(context.Background(), BountyDraft{Title: "Logo", Reward: "0", Deadline: testNow.Add(time.Hour)})
	assert.Equal(t, txflow.MsgRewardNotPositive, messageOf(t, err))

	require.Len(t, x.ops, 3)
	for _, op := range x.ops {
		assert.Nil(t, op.Call)
	}
}

type connectedGuard struct{}

func (connectedGuard) Guard() (wallet.Snapshot, error) {
	return wallet.Snapshot{Connected: true, ChainID: 1337}, nil
}

func TestClient_InputErrorsReachLifecycle(t *testing.T) {
	calls, err := contract.NewCalls(contractAddr)
	require.NoError(t, err)
	tracker := txflow.New(txflow.Config{Session: connectedGuard{}, ResetDelay: time.Hour})
	var seen []types.TxStatus
	tracker.Subscribe(func(s types.TxStatus) {
		seen = append(seen, s)
	})
	c := &client{
		calls:    calls,
		reader:   &fakeReader{},
		tx:       tracker,
		decimals: 18,
		now:      func() time.Time { return testNow },
		lgr:      zap.NewNop(),
	}

	_, err = c.SetReward(context.Background(), 1, 0, "lots")
	require.Error(t, err)
	_, err = c.CompleteBounty(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.Len(t, seen, 2)
	assert.Equal(t, types.TxError, seen[0].State)
	assert.Equal(t, contract.MethodSetSubmissionReward, seen[0].Operation)
	assert.Equal(t, "Invalid amount: invalid amount", seen[0].Message)
	assert.Equal(t, types.TxError, seen[1].State)
	assert.Equal(t, contract.MethodCompleteBounty, seen[1].Operation)
}

func TestSubmitProof_InactiveBounty(t *testing.T) {
	c, _, _ := newTestClient(t, map[uint64]*types.Bounty{
		1: {ID: 1, Status: types.BountyCancelled, Deadline: testNow.Add(time.Hour).Unix()},
		2: {ID: 2, Status: types.BountyActive, Deadline: testNow.Add(-time.Hour).Unix()},
	})
	_, _, err := c.SubmitProof(context.Background(), 1, "QmProof")
	assert.Equal(t, txflow.MsgBountyNotActive, messageOf(t, err))

	_, _, err = c.SubmitProof(context.Background(), 2, "QmProof")
	assert.Equal(t, txflow.MsgBountyNotActive, messageOf(t, err))

	_, _, err = c.SubmitProof(context.Background(), 9, "QmProof")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestVote_AlreadyVoted(t *testing.T) {
	voted := true
	c, r, x := newTestClient(t, map[uint64]*types.Bounty{
		1: {ID: 1, Status: types.BountyActive, Submissions: []*types.Submission{{ID: 0, HasVoted: &voted}, {ID: 1}}},
	})
	voter := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	_, err := c.Vote(context.Background(), voter, 1, 0, true)
	assert.Equal(t, txflow.MsgAlreadyVoted, messageOf(t, err))
	assert.Equal(t, voter, r.viewer)

	_, err = c.Vote(context.Background(), voter, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, contract.MethodVerifySubmission, x.ops[1].Name)

	_, err = c.Vote(context.Background(), voter, 1, 4, true)
	assert.Equal(t, txflow.MsgSubmissionNotFound, messageOf(t, err))
}

func TestSetReward_Preflight(t *testing.T) {
	approved := &types.Submission{ID: 0, Approved: true}
	pending := &types.Submission{ID: 1}
	c, _, x := newTestClient(t, map[uint64]*types.Bounty{
		1: {ID: 1, Reward: "2000000000000000000", Deadline: testNow.Add(time.Hour).Unix(), Submissions: []*types.Submission{approved}},
		2: {ID: 2, Reward: "2000000000000000000", Deadline: testNow.Add(-time.Hour).Unix(), Submissions: []*types.Submission{approved, pending}},
	})

	_, err := c.SetReward(context.Background(), 1, 0, "1")
	assert.Equal(t, txflow.MsgRewardBeforeDeadline, messageOf(t, err))

	_, err = c.SetReward(context.Background(), 2, 1, "1")
	assert.Equal(t, txflow.MsgRewardNotApproved, messageOf(t, err))

	_, err = c.SetReward(context.Background(), 2, 0, "3")
	assert.Equal(t, txflow.MsgRewardExceedsBounty, messageOf(t, err))

	_, err = c.SetReward(context.Background(), 2, 0, "0.5")
	require.NoError(t, err)
	last := x.ops[len(x.ops)-1]
	assert.Equal(t, contract.MethodSetSubmissionReward, last.Name)
	assert.Equal(t, 0, last.Call.Value.Sign())
}

func TestSkippedSubmissionIsNotRetargeted(t *testing.T) {
	// submission 0 could not be read, so only index 1 is listed
	c, _, x := newTestClient(t, map[uint64]*types.Bounty{
		7: {
			ID:          7,
			Status:      types.BountyActive,
			Reward:      "2000000000000000000",
			Deadline:    testNow.Add(-time.Hour).Unix(),
			Submissions: []*types.Submission{{ID: 1, Approved: true}},
		},
	})
	voter := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	_, err := c.SetReward(context.Background(), 7, 0, "0.5")
	assert.Equal(t, txflow.MsgSubmissionNotFound, messageOf(t, err))

	_, err = c.Vote(context.Background(), voter, 7, 0, true)
	assert.Equal(t, txflow.MsgSubmissionNotFound, messageOf(t, err))

	_, err = c.SetReward(context.Background(), 7, 1, "0.5")
	require.NoError(t, err)
	last := x.ops[len(x.ops)-1]
	assert.Equal(t, contract.MethodSetSubmissionReward, last.Name)
	require.NotNil(t, last.Call)

	_, err = c.Vote(context.Background(), voter, 7, 1, true)
	require.NoError(t, err)
}

func TestCompleteBounty(t *testing.T) {
	c, r, _ := newTestClient(t, map[uint64]*types.Bounty{
		1: {ID: 1, Status: types.BountyActive},
		2: {ID: 2, Status: types.BountyCompleted},
	})
	_, err := c.CompleteBounty(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.refreshes)

	_, err = c.CompleteBounty(context.Background(), 2)
	assert.Equal(t, txflow.MsgBountyNotActive, messageOf(t, err))
}

func TestParseDeadline(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	d, err := parseDeadline("2026-03-12", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 23, 59, 59, 0, time.UTC), d)

	d, err = parseDeadline("48h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(48*time.Hour), d)

	_, err = parseDeadline("next week", now)
	assert.Error(t, err)
}
