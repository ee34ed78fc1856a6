package readmodel

import (
	"math/big"
	"time"

	"github.com/bountyboard/bounty-backend/types"
	"github.com/bountyboard/bounty-backend/utils"
)

// normalizeBounty fills the display fields. It works on a copy so cached values stay untouched.
func normalizeBounty(b *types.Bounty, decimals int32, now time.Time) *types.Bounty {
	c := b.Copy()
	c.RewardFormatted = utils.FormatUnits(c.RewardAmount(), decimals)
	c.Expired = c.IsExpired(now)
	c.StatusText = c.Status.String()
	for _, s := range c.Submissions {
		normalizeSubmission(s, decimals)
	}
	return c
}

func normalizeSubmission(s *types.Submission, decimals int32) {
	if s.Reward == "" {
		s.Reward = "0"
	}
	reward, ok := new(big.Int).SetString(s.Reward, 10)
	if !ok {
		reward = new(big.Int)
	}
	s.RewardFormatted = utils.FormatUnits(reward, decimals)
	s.Status = s.DerivedStatus()
}

func normalizeAll(list []*types.Bounty, decimals int32, now time.Time) []*types.Bounty {
	out := make([]*types.Bounty, len(list))
	for i, b := range list {
		out[i] = normalizeBounty(b, decimals, now)
	}
	return out
}
