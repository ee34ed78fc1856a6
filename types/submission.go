// Package types
package types

import (
	"math/big"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// DeriveSubmissionStatus maps the raw vote counters to the display status.
// The approved flag wins over any number of reject votes.
func DeriveSubmissionStatus(approved bool, rejectCount uint64) SubmissionStatus {
	if approved {
		return SubmissionApproved
	}
	if rejectCount > 0 {
		return SubmissionRejected
	}
	return SubmissionPending
}

type Submission struct {
	ID              uint64           `json:"id" bson:"id"`
	BountyID        uint64           `json:"bountyId" bson:"bountyId"`
	Submitter       string           `json:"submitter" bson:"submitter"`
	ProofHash       string           `json:"proofHash" bson:"proofHash"`
	Timestamp       int64            `json:"timestamp" bson:"timestamp"`
	ApproveCount    uint64           `json:"approveCount" bson:"approveCount"`
	RejectCount     uint64           `json:"rejectCount" bson:"rejectCount"`
	Approved        bool             `json:"approved" bson:"approved"`
	IsWinner        bool             `json:"isWinner" bson:"isWinner"`
	Reward          string           `json:"reward" bson:"reward"`
	RewardFormatted string           `json:"rewardFormatted" bson:"rewardFormatted"`
	Status          SubmissionStatus `json:"status" bson:"status"`
	HasVoted        *bool            `json:"hasVoted,omitempty" bson:"-"`
	TxHash          string           `json:"txHash,omitempty" bson:"txHash,omitempty"`
	PayoutTxHash    string           `json:"payoutTxHash,omitempty" bson:"payoutTxHash,omitempty"`
}

func (s *Submission) DerivedStatus() SubmissionStatus {
	return DeriveSubmissionStatus(s.Approved, s.RejectCount)
}

func (s *Submission) RewardAmount() *big.Int {
	v, ok := new(big.Int).SetString(s.Reward, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// SubmissionRef points at a submission by its bounty and index.
type SubmissionRef struct {
	BountyID uint64 `json:"bountyId"`
	Index    uint64 `json:"index"`
}
