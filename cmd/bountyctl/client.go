package main

import (
	"context"
	"errors"
	"math/big"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/contract"
	"github.com/bountyboard/bounty-backend/readmodel"
	"github.com/bountyboard/bounty-backend/txflow"
	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
)

type reader interface {
	ListBounties(ctx context.Context) ([]*types.Bounty, error)
	BountyDetails(ctx context.Context, id uint64) (*types.Bounty, error)
	BountyDetailsFor(ctx context.Context, id uint64, viewer string) (*types.Bounty, error)
	Refresh(ctx context.Context) (readmodel.Snapshot, error)
}

type executor interface {
	Execute(ctx context.Context, op txflow.Operation) (*gethtypes.Receipt, error)
}

// client runs every contract write through the transaction lifecycle and refreshes
// the read model once a write is confirmed.
type client struct {
	calls    *contract.Calls
	reader   reader
	tx       executor
	decimals int32
	now      func() time.Time
	lgr      *zap.Logger
}

type BountyDraft struct {
	Title        string
	Description  string
	Requirements string
	Reward       string
	Deadline     time.Time
}

func (c *client) refetch(ctx context.Context, _ *gethtypes.Receipt) error {
	_, err := c.reader.Refresh(ctx)
	return err
}

// execute runs one write. build parses input, reads whatever the checks need and
// encodes the call, so its failures end in the lifecycle Error state like any other.
func (c *client) execute(ctx context.Context, method string, build func(ctx context.Context) (*contract.Call, error), preflight func() error) (*gethtypes.Receipt, error) {
	return c.tx.Execute(ctx, txflow.Operation{
		Name:      method,
		Build:     build,
		Preflight: preflight,
		Refetch:   c.refetch,
	})
}

// invalidInput turns an argument or encoding error into a user facing rejection.
func invalidInput(err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, contract.ErrNonPositiveAmt):
		msg = txflow.MsgRewardNotPositive
	case errors.Is(err, contract.ErrEmptyTitle):
		msg = "A title is required"
	case errors.Is(err, contract.ErrEmptyProof):
		msg = "A proof hash is required"
	case errors.Is(err, utils.ErrInvalidAmount), errors.Is(err, utils.ErrTooManyDecimal):
		msg = "Invalid amount: " + msg
	}
	return &txflow.PreflightError{Message: msg, Cause: err}
}

func (c *client) parseAmount(s string) (*big.Int, error) {
	v, err := utils.ParseUnits(s, c.decimals)
	if err != nil {
		return nil, invalidInput(err)
	}
	return v, nil
}

// CreateBounty returns the id the contract assigned to the new bounty.
func (c *client) CreateBounty(ctx context.Context, draft BountyDraft) (uint64, *gethtypes.Receipt, error) {
	deadline := draft.Deadline.Unix()
	receipt, err := c.execute(ctx, contract.MethodCreateBounty, func(context.Context) (*contract.Call, error) {
		reward, err := c.parseAmount(draft.Reward)
		if err != nil {
			return nil, err
		}
		call, err := c.calls.CreateBounty(draft.Title, draft.Description, draft.Requirements, reward, deadline)
		if err != nil {
			return nil, invalidInput(err)
		}
		return call, nil
	}, func() error {
		return txflow.CheckDeadline(deadline, c.now())
	})
	if err != nil {
		return 0, receipt, err
	}
	id, ok := c.calls.ParseBountyCreated(receipt.Logs)
	if !ok {
		c.lgr.Warn("Confirmed createBounty without BountyCreated event", zap.String("hash", receipt.TxHash.Hex()))
	}
	return id, receipt, nil
}

func (c *client) CancelBounty(ctx context.Context, bountyID uint64) (*gethtypes.Receipt, error) {
	var bounty *types.Bounty
	return c.execute(ctx, contract.MethodCancelBounty, func(ctx context.Context) (*contract.Call, error) {
		var err error
		if bounty, err = c.reader.BountyDetails(ctx, bountyID); err != nil {
			return nil, err
		}
		return c.calls.CancelBounty(bountyID)
	}, func() error {
		return checkActive(bounty)
	})
}

// SubmitProof returns the index of the new submission.
func (c *client) SubmitProof(ctx context.Context, bountyID uint64, proofHash string) (uint64, *gethtypes.Receipt, error) {
	var bounty *types.Bounty
	receipt, err := c.execute(ctx, contract.MethodSubmitProof, func(ctx context.Context) (*contract.Call, error) {
		call, err := c.calls.SubmitProof(bountyID, proofHash)
		if err != nil {
			return nil, invalidInput(err)
		}
		if bounty, err = c.reader.BountyDetails(ctx, bountyID); err != nil {
			return nil, err
		}
		return call, nil
	}, func() error {
		if err := checkActive(bounty); err != nil {
			return err
		}
		if bounty.IsExpired(c.now()) {
			return &txflow.PreflightError{Message: txflow.MsgBountyNotActive}
		}
		return nil
	})
	if err != nil {
		return 0, receipt, err
	}
	_, index, _ := c.calls.ParseProofSubmitted(receipt.Logs)
	return index, receipt, nil
}

func (c *client) Vote(ctx context.Context, voter string, bountyID, index uint64, approve bool) (*gethtypes.Receipt, error) {
	var bounty *types.Bounty
	return c.execute(ctx, contract.MethodVerifySubmission, func(ctx context.Context) (*contract.Call, error) {
		var err error
		if bounty, err = c.reader.BountyDetailsFor(ctx, bountyID, voter); err != nil {
			return nil, err
		}
		return c.calls.VerifySubmission(bountyID, index, approve)
	}, func() error {
		sub, ok := bounty.SubmissionByID(index)
		if !ok {
			return &txflow.PreflightError{Message: txflow.MsgSubmissionNotFound}
		}
		if sub.HasVoted != nil && *sub.HasVoted {
			return &txflow.PreflightError{Message: txflow.MsgAlreadyVoted}
		}
		return nil
	})
}

func (c *client) SetReward(ctx context.Context, bountyID, index uint64, amount string) (*gethtypes.Receipt, error) {
	var (
		bounty *types.Bounty
		value  *big.Int
	)
	return c.execute(ctx, contract.MethodSetSubmissionReward, func(ctx context.Context) (*contract.Call, error) {
		var err error
		if value, err = c.parseAmount(amount); err != nil {
			return nil, err
		}
		if bounty, err = c.reader.BountyDetails(ctx, bountyID); err != nil {
			return nil, err
		}
		call, err := c.calls.SetSubmissionReward(bountyID, index, value)
		if err != nil {
			return nil, invalidInput(err)
		}
		return call, nil
	}, func() error {
		return txflow.CheckSetReward(bounty, index, value, c.now())
	})
}

func (c *client) CompleteBounty(ctx context.Context, bountyID uint64) (*gethtypes.Receipt, error) {
	var bounty *types.Bounty
	return c.execute(ctx, contract.MethodCompleteBounty, func(ctx context.Context) (*contract.Call, error) {
		var err error
		if bounty, err = c.reader.BountyDetails(ctx, bountyID); err != nil {
			return nil, err
		}
		return c.calls.CompleteBounty(bountyID)
	}, func() error {
		return checkActive(bounty)
	})
}

func checkActive(b *types.Bounty) error {
	if b.Status != types.BountyActive {
		return &txflow.PreflightError{Message: txflow.MsgBountyNotActive}
	}
	return nil
}
