package txflow

import (
	"math/big"
	"time"

	"github.com/bountyboard/bounty-backend/types"
)

// PreflightError rejects a write before anything is sent.
type PreflightError struct {
	Message string
	Cause   error
}

func (e *PreflightError) Error() string {
	return e.Message
}

func (e *PreflightError) Unwrap() error {
	return e.Cause
}

// CheckSetReward mirrors the contract's checks on setSubmissionReward.
func CheckSetReward(b *types.Bounty, index uint64, amount *big.Int, now time.Time) error {
	if b == nil {
		return &PreflightError{Message: MsgSubmissionNotFound}
	}
	sub, ok := b.SubmissionByID(index)
	if !ok {
		return &PreflightError{Message: MsgSubmissionNotFound}
	}
	if amount == nil || amount.Sign() <= 0 {
		return &PreflightError{Message: MsgRewardNotPositive}
	}
	if !b.IsExpired(now) {
		return &PreflightError{Message: MsgRewardBeforeDeadline}
	}
	if sub.DerivedStatus() != types.SubmissionApproved {
		return &PreflightError{Message: MsgRewardNotApproved}
	}
	if amount.Cmp(b.RewardAmount()) > 0 {
		return &PreflightError{Message: MsgRewardExceedsBounty}
	}
	return nil
}

// CheckDeadline rejects bounty creation with a deadline that is not in the future.
func CheckDeadline(deadline int64, now time.Time) error {
	if deadline <= now.Unix() {
		return &PreflightError{Message: MsgDeadlineInPast}
	}
	return nil
}
