package txflow

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/wallet"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"provider rejection", &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "denied"}, MsgUserRejected},
		{"wrapped rejection", fmt.Errorf("send: %w", &wallet.ProviderError{Code: wallet.CodeUserRejected}), MsgUserRejected},
		{"rejection text", errors.New("MetaMask Tx Signature: User denied transaction signature."), MsgUserRejected},
		{"insufficient funds", errors.New("estimate gas: insufficient funds for gas * price + value"), MsgInsufficientFunds},
		{"reward before deadline", errors.New("execution reverted: Cannot set reward before deadline"), MsgRewardBeforeDeadline},
		{"reward not approved", errors.New("execution reverted: Can only set reward for approved submissions"), MsgRewardNotApproved},
		{"reward too high", errors.New("execution reverted: Reward exceeds bounty amount"), MsgRewardExceedsBounty},
		{"deadline", errors.New("execution reverted: Deadline must be in the future"), MsgDeadlineInPast},
		{"not active", errors.New("execution reverted: Bounty is not active"), MsgBountyNotActive},
		{"voted", errors.New("execution reverted: Already voted"), MsgAlreadyVoted},
		{"reverted receipt", ErrReverted, MsgReverted},
		{"session", types.ErrNotConnected, types.ErrNotConnected.Message},
		{"missing bounty", types.ErrNotFound.With(nil, "bounty 3 not found"), "bounty 3 not found"},
		{"unknown", errors.New("nonce too low"), MsgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
	assert.Empty(t, Classify(nil))
}

func TestCheckSetReward(t *testing.T) {
	now := time.Unix(2_000_000, 0)
	bounty := func(deadline int64, approved bool) *types.Bounty {
		return &types.Bounty{
			Reward:   "1000",
			Deadline: deadline,
			Submissions: []*types.Submission{
				{ID: 0, Approved: approved},
			},
		}
	}

	tests := []struct {
		name   string
		bounty *types.Bounty
		index  uint64
		amount int64
		want   string
	}{
		{"before deadline", bounty(now.Unix()+60, true), 0, 10, MsgRewardBeforeDeadline},
		{"not approved", bounty(now.Unix()-60, false), 0, 10, MsgRewardNotApproved},
		{"exceeds reward", bounty(now.Unix()-60, true), 0, 1001, MsgRewardExceedsBounty},
		{"missing submission", bounty(now.Unix()-60, true), 3, 10, MsgSubmissionNotFound},
		{"zero", bounty(now.Unix()-60, true), 0, 0, MsgRewardNotPositive},
		{"ok", bounty(now.Unix()-60, true), 0, 1000, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSetReward(tt.bounty, tt.index, big.NewInt(tt.amount), now)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestCheckSetReward_SkippedSubmission(t *testing.T) {
	now := time.Unix(2_000_000, 0)
	// submission 0 failed to load, so the list starts at index 1
	b := &types.Bounty{
		Reward:      "1000",
		Deadline:    now.Unix() - 60,
		Submissions: []*types.Submission{{ID: 1, Approved: true}},
	}
	assert.EqualError(t, CheckSetReward(b, 0, big.NewInt(10), now), MsgSubmissionNotFound)
	assert.NoError(t, CheckSetReward(b, 1, big.NewInt(10), now))
}

func TestCheckDeadline(t *testing.T) {
	now := time.Unix(2_000_000, 0)
	assert.Error(t, CheckDeadline(now.Unix(), now))
	assert.NoError(t, CheckDeadline(now.Unix()+1, now))
}
