package txflow

import (
	"errors"
	"strings"

	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/wallet"
)

const (
	MsgUserRejected      = "Transaction was rejected in wallet"
	MsgInsufficientFunds = "Insufficient funds to cover the reward and gas fees"
	MsgReverted          = "Transaction failed on chain"
	MsgGeneric           = "Transaction failed, please try again"

	MsgRewardBeforeDeadline = "Rewards can only be set after the bounty deadline has passed"
	MsgRewardNotApproved    = "Rewards can only be set for approved submissions"
	MsgRewardExceedsBounty  = "The reward cannot exceed the bounty amount"
	MsgDeadlineInPast       = "The deadline must be in the future"
	MsgBountyNotActive      = "This bounty is no longer active"
	MsgAlreadyVoted         = "You have already voted on this submission"
	MsgSubmissionNotFound   = "Submission not found"
	MsgRewardNotPositive    = "The reward must be greater than zero"
)

var ErrReverted = errors.New("transaction reverted")

// revertCopy maps contract revert reasons to the text shown to users.
var revertCopy = []struct {
	reason  string
	message string
}{
	{"cannot set reward before deadline", MsgRewardBeforeDeadline},
	{"can only set reward for approved submissions", MsgRewardNotApproved},
	{"reward exceeds bounty amount", MsgRewardExceedsBounty},
	{"deadline must be in the future", MsgDeadlineInPast},
	{"bounty is not active", MsgBountyNotActive},
	{"already voted", MsgAlreadyVoted},
}

// Classify turns a write failure into a user facing message.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var pe *PreflightError
	if errors.As(err, &pe) {
		return pe.Message
	}
	if wallet.HasCode(err, wallet.CodeUserRejected) {
		return MsgUserRejected
	}
	var te *types.Error
	if errors.As(err, &te) && (te.Kind == types.KindConnection || te.Kind == types.KindNetworkMismatch || te.Kind == types.KindNotFound) {
		return te.Message
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied") {
		return MsgUserRejected
	}
	if strings.Contains(msg, "insufficient funds") {
		return MsgInsufficientFunds
	}
	for _, c := range revertCopy {
		if strings.Contains(msg, c.reason) {
			return c.message
		}
	}
	if errors.Is(err, ErrReverted) {
		return MsgReverted
	}
	return MsgGeneric
}
