// Package contract reads and encodes calls to the bounty board contract.
package contract

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bountyboard/bounty-backend/types"
)

var (
	ErrEmptyResult    = errors.New("empty contract result")
	ErrInvalidAddress = errors.New("invalid contract address")
)

// Caller is the part of an RPC client used for read-only calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Client interface {
	BountyCount(ctx context.Context) (uint64, error)
	Bounty(ctx context.Context, id uint64) (*types.Bounty, error)
	SubmissionCount(ctx context.Context, bountyID uint64) (uint64, error)
	Submission(ctx context.Context, bountyID, index uint64) (*types.Submission, error)
	HasVoted(ctx context.Context, bountyID, index uint64, voter string) (bool, error)
	UserBounties(ctx context.Context, user string) ([]uint64, error)
	UserSubmissions(ctx context.Context, user string) ([]types.SubmissionRef, error)
	UserReputation(ctx context.Context, user string) (uint64, error)
}

type Config struct {
	Address string
	Caller  Caller
	Logger  *zap.Logger
}

type client struct {
	abi     abi.ABI
	address common.Address
	caller  Caller
	lgr     *zap.Logger
}

func New(cfg Config) (Client, error) {
	if !common.IsHexAddress(cfg.Address) {
		return nil, ErrInvalidAddress
	}
	a, err := parseABI()
	if err != nil {
		return nil, err
	}
	lgr := cfg.Logger
	if lgr == nil {
		lgr = zap.NewNop()
	}
	return &client{
		abi:     a,
		address: common.HexToAddress(cfg.Address),
		caller:  cfg.Caller,
		lgr:     lgr.With(zap.String("contract", cfg.Address)),
	}, nil
}

func parseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(BountyBoardABI))
}

// call packs the method, runs it against the latest state and unpacks the outputs.
func (c *client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	payload, err := c.abi.Pack(method, args...)
	if err != nil {
		c.lgr.Error("Error packing payload", zap.String("method", method), zap.Error(err))
		return nil, types.ErrContractCall.With(err, "cannot encode %s", method)
	}
	res, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: payload}, nil)
	if err != nil {
		c.lgr.Warn("CallContract error", zap.String("method", method), zap.Error(err))
		return nil, types.ErrContractCall.With(err, "%s call failed", method)
	}
	if len(res) == 0 {
		return nil, types.ErrContractCall.With(ErrEmptyResult, "%s returned no data", method)
	}
	out, err := c.abi.Unpack(method, res)
	if err != nil {
		c.lgr.Error("Error unpacking result", zap.String("method", method), zap.Error(err))
		return nil, types.ErrContractCall.With(decodeErr(method, "", err), "cannot decode %s", method)
	}
	return out, nil
}

func (c *client) BountyCount(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, MethodGetBountyCount)
	if err != nil {
		return 0, err
	}
	d := newDecoder(MethodGetBountyCount, out)
	count := d.uint64(0, "count")
	return count, d.result()
}

func (c *client) Bounty(ctx context.Context, id uint64) (*types.Bounty, error) {
	out, err := c.call(ctx, MethodGetBounty, new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	b, err := decodeBounty(out)
	if err != nil {
		return nil, types.ErrContractCall.With(err, "cannot decode bounty %d", id)
	}
	return b, nil
}

func (c *client) SubmissionCount(ctx context.Context, bountyID uint64) (uint64, error) {
	out, err := c.call(ctx, MethodGetSubmissionCount, new(big.Int).SetUint64(bountyID))
	if err != nil {
		return 0, err
	}
	d := newDecoder(MethodGetSubmissionCount, out)
	count := d.uint64(0, "count")
	return count, d.result()
}

func (c *client) Submission(ctx context.Context, bountyID, index uint64) (*types.Submission, error) {
	out, err := c.call(ctx, MethodGetSubmission, new(big.Int).SetUint64(bountyID), new(big.Int).SetUint64(index))
	if err != nil {
		return nil, err
	}
	s, err := decodeSubmission(bountyID, index, out)
	if err != nil {
		return nil, types.ErrContractCall.With(err, "cannot decode submission %d of bounty %d", index, bountyID)
	}
	return s, nil
}

func (c *client) HasVoted(ctx context.Context, bountyID, index uint64, voter string) (bool, error) {
	if !common.IsHexAddress(voter) {
		return false, ErrInvalidAddress
	}
	out, err := c.call(ctx, MethodHasVoted, new(big.Int).SetUint64(bountyID), new(big.Int).SetUint64(index), common.HexToAddress(voter))
	if err != nil {
		return false, err
	}
	d := newDecoder(MethodHasVoted, out)
	voted := d.bool(0, "voted")
	return voted, d.result()
}

func (c *client) UserBounties(ctx context.Context, user string) ([]uint64, error) {
	if !common.IsHexAddress(user) {
		return nil, ErrInvalidAddress
	}
	out, err := c.call(ctx, MethodGetUserBounties, common.HexToAddress(user))
	if err != nil {
		return nil, err
	}
	d := newDecoder(MethodGetUserBounties, out)
	ids := d.uint64s(0, "bountyIds")
	return ids, d.result()
}

func (c *client) UserSubmissions(ctx context.Context, user string) ([]types.SubmissionRef, error) {
	if !common.IsHexAddress(user) {
		return nil, ErrInvalidAddress
	}
	out, err := c.call(ctx, MethodGetUserSubmissions, common.HexToAddress(user))
	if err != nil {
		return nil, err
	}
	d := newDecoder(MethodGetUserSubmissions, out)
	bountyIDs := d.uint64s(0, "bountyIds")
	indexes := d.uint64s(1, "submissionIds")
	if err := d.result(); err != nil {
		return nil, err
	}
	if len(bountyIDs) != len(indexes) {
		return nil, decodeErr(MethodGetUserSubmissions, "submissionIds", errors.New("length mismatch"))
	}
	refs := make([]types.SubmissionRef, len(bountyIDs))
	for i := range bountyIDs {
		refs[i] = types.SubmissionRef{BountyID: bountyIDs[i], Index: indexes[i]}
	}
	return refs, nil
}

func (c *client) UserReputation(ctx context.Context, user string) (uint64, error) {
	if !common.IsHexAddress(user) {
		return 0, ErrInvalidAddress
	}
	out, err := c.call(ctx, MethodGetUserReputation, common.HexToAddress(user))
	if err != nil {
		return 0, err
	}
	d := newDecoder(MethodGetUserReputation, out)
	rep := d.uint64(0, "reputation")
	return rep, d.result()
}
