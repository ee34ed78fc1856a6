// Package types
package types

import (
	"math/big"
	"time"
)

type BountyStatus uint8

const (
	BountyActive BountyStatus = iota
	BountyCompleted
	BountyCancelled
)

func (s BountyStatus) String() string {
	switch s {
	case BountyActive:
		return "active"
	case BountyCompleted:
		return "completed"
	case BountyCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s BountyStatus) Valid() bool {
	return s <= BountyCancelled
}

// Bounty is the normalized view of an on-chain bounty. Amounts are kept as
// base-10 strings in the chain's smallest unit, like every other amount the API returns.
type Bounty struct {
	ID              uint64        `json:"id" bson:"id"`
	Creator         string        `json:"creator" bson:"creator"`
	Title           string        `json:"title" bson:"title"`
	Description     string        `json:"description" bson:"description"`
	Requirements    string        `json:"requirements" bson:"requirements"`
	Reward          string        `json:"reward" bson:"reward"`
	RewardFormatted string        `json:"rewardFormatted" bson:"rewardFormatted"`
	RewardToken     string        `json:"rewardToken" bson:"rewardToken"`
	Deadline        int64         `json:"deadline" bson:"deadline"`
	Completed       bool          `json:"completed" bson:"completed"`
	WinnerCount     uint64        `json:"winnerCount" bson:"winnerCount"`
	SubmissionCount uint64        `json:"submissionCount" bson:"submissionCount"`
	Status          BountyStatus  `json:"status" bson:"status"`
	StatusText      string        `json:"statusText" bson:"statusText"`
	Winner          string        `json:"winner,omitempty" bson:"winner,omitempty"`
	Expired         bool          `json:"expired" bson:"-"`
	Submissions     []*Submission `json:"submissions,omitempty" bson:"-"`
}

// RewardAmount returns the reward in the smallest unit, zero if the stored value is malformed.
func (b *Bounty) RewardAmount() *big.Int {
	v, ok := new(big.Int).SetString(b.Reward, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// IsExpired reports whether the deadline has passed, independent of the stored status.
func (b *Bounty) IsExpired(now time.Time) bool {
	return b.Deadline < now.Unix()
}

func (b *Bounty) DeadlineTime() time.Time {
	return time.Unix(b.Deadline, 0)
}

// SubmissionByID looks a submission up by its contract index. Records skipped while
// loading are absent, so positions in Submissions are not indices.
func (b *Bounty) SubmissionByID(index uint64) (*Submission, bool) {
	for _, s := range b.Submissions {
		if s != nil && s.ID == index {
			return s, true
		}
	}
	return nil, false
}

// Copy returns a shallow copy with its own submissions slice.
func (b *Bounty) Copy() *Bounty {
	c := *b
	if b.Submissions != nil {
		c.Submissions = make([]*Submission, len(b.Submissions))
		for i, s := range b.Submissions {
			sc := *s
			c.Submissions[i] = &sc
		}
	}
	return &c
}
