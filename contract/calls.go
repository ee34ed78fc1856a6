package contract

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrEmptyTitle     = errors.New("title is required")
	ErrEmptyProof     = errors.New("proof hash is required")
	ErrNonPositiveAmt = errors.New("amount must be positive")
)

// Call is an encoded state-changing call, ready for a signer.
type Call struct {
	Method string
	To     common.Address
	Data   []byte
	Value  *big.Int
}

// Calls encodes write calls against a single contract deployment.
type Calls struct {
	abi     abi.ABI
	address common.Address
}

func NewCalls(address string) (*Calls, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	a, err := parseABI()
	if err != nil {
		return nil, err
	}
	return &Calls{abi: a, address: common.HexToAddress(address)}, nil
}

func (c *Calls) Address() common.Address {
	return c.address
}

func (c *Calls) build(method string, value *big.Int, args ...interface{}) (*Call, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = new(big.Int)
	}
	return &Call{Method: method, To: c.address, Data: data, Value: value}, nil
}

// CreateBounty escrows reward with the call, so the transaction value equals the reward.
func (c *Calls) CreateBounty(title, description, requirements string, reward *big.Int, deadline int64) (*Call, error) {
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if reward == nil || reward.Sign() <= 0 {
		return nil, ErrNonPositiveAmt
	}
	return c.build(MethodCreateBounty, reward, title, description, requirements, reward, big.NewInt(deadline))
}

func (c *Calls) CancelBounty(bountyID uint64) (*Call, error) {
	return c.build(MethodCancelBounty, nil, new(big.Int).SetUint64(bountyID))
}

func (c *Calls) SubmitProof(bountyID uint64, proofHash string) (*Call, error) {
	if proofHash == "" {
		return nil, ErrEmptyProof
	}
	return c.build(MethodSubmitProof, nil, new(big.Int).SetUint64(bountyID), proofHash)
}

func (c *Calls) VerifySubmission(bountyID, index uint64, approve bool) (*Call, error) {
	return c.build(MethodVerifySubmission, nil, new(big.Int).SetUint64(bountyID), new(big.Int).SetUint64(index), approve)
}

// SetSubmissionReward pays out of the escrow taken at creation and sends no value.
func (c *Calls) SetSubmissionReward(bountyID, index uint64, amount *big.Int) (*Call, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrNonPositiveAmt
	}
	return c.build(MethodSetSubmissionReward, nil, new(big.Int).SetUint64(bountyID), new(big.Int).SetUint64(index), amount)
}

func (c *Calls) CompleteBounty(bountyID uint64) (*Call, error) {
	return c.build(MethodCompleteBounty, nil, new(big.Int).SetUint64(bountyID))
}

// ParseBountyCreated returns the id of the first BountyCreated event emitted by this contract.
func (c *Calls) ParseBountyCreated(logs []*gethtypes.Log) (uint64, bool) {
	ev := c.abi.Events[EventBountyCreated]
	for _, l := range logs {
		if l == nil || l.Address != c.address || len(l.Topics) < 2 || l.Topics[0] != ev.ID {
			continue
		}
		id := new(big.Int).SetBytes(l.Topics[1].Bytes())
		if !id.IsUint64() {
			continue
		}
		return id.Uint64(), true
	}
	return 0, false
}

// ParseProofSubmitted returns the bounty id and submission index of the first ProofSubmitted event.
func (c *Calls) ParseProofSubmitted(logs []*gethtypes.Log) (uint64, uint64, bool) {
	ev := c.abi.Events[EventProofSubmitted]
	for _, l := range logs {
		if l == nil || l.Address != c.address || len(l.Topics) < 2 || l.Topics[0] != ev.ID {
			continue
		}
		out, err := c.abi.Unpack(EventProofSubmitted, l.Data)
		if err != nil || len(out) != 1 {
			continue
		}
		idx, ok := out[0].(*big.Int)
		if !ok || !idx.IsUint64() {
			continue
		}
		bountyID := new(big.Int).SetBytes(l.Topics[1].Bytes())
		if !bountyID.IsUint64() {
			continue
		}
		return bountyID.Uint64(), idx.Uint64(), true
	}
	return 0, 0, false
}
