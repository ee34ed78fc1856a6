package types

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBounty_IsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	past := &Bounty{Deadline: now.Unix() - 1, Status: BountyActive}
	future := &Bounty{Deadline: now.Unix() + 3600, Status: BountyActive}
	completed := &Bounty{Deadline: now.Unix() - 10, Status: BountyCompleted}

	assert.True(t, past.IsExpired(now))
	assert.False(t, future.IsExpired(now))
	assert.True(t, completed.IsExpired(now))
}

func TestBounty_RewardAmount(t *testing.T) {
	b := &Bounty{Reward: "1000000000000000000"}
	assert.Equal(t, 0, b.RewardAmount().Cmp(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)))

	bad := &Bounty{Reward: "1e18"}
	assert.Equal(t, int64(0), bad.RewardAmount().Int64())
}

func TestBounty_CopyDoesNotShareSubmissions(t *testing.T) {
	b := &Bounty{ID: 1, Submissions: []*Submission{{ID: 0, Approved: false}}}
	c := b.Copy()
	c.Submissions[0].Approved = true
	c.Title = "changed"

	assert.False(t, b.Submissions[0].Approved)
	assert.Equal(t, "", b.Title)
}

func TestBounty_SubmissionByID(t *testing.T) {
	b := &Bounty{Submissions: []*Submission{{ID: 1}, {ID: 3}}}

	s, ok := b.SubmissionByID(3)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), s.ID)

	_, ok = b.SubmissionByID(0)
	assert.False(t, ok)
}
