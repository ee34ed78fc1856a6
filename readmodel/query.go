package readmodel

import (
	"sort"
	"strings"

	"github.com/bountyboard/bounty-backend/types"
)

type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortDeadline SortOrder = "deadline"
	SortReward   SortOrder = "reward"
)

// Status filters understood by Query besides the stored statuses.
const (
	FilterAll     = "all"
	FilterExpired = "expired"
	FilterOpen    = "open"
)

// Query is a pure view over a bounty list.
type Query struct {
	Search string
	Sort   SortOrder
	Status string
}

// Apply returns a new filtered and sorted slice. The input slice is not modified.
func (q Query) Apply(list []*types.Bounty) []*types.Bounty {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]*types.Bounty, 0, len(list))
	for _, b := range list {
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Description), search) {
			continue
		}
		if !q.matchStatus(b) {
			continue
		}
		out = append(out, b)
	}

	switch q.Sort {
	case SortDeadline:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline < out[j].Deadline })
	case SortReward:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RewardAmount().Cmp(out[j].RewardAmount()) > 0 })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out
}

func (q Query) matchStatus(b *types.Bounty) bool {
	switch strings.ToLower(q.Status) {
	case "", FilterAll:
		return true
	case FilterExpired:
		return b.Expired
	case FilterOpen:
		return b.Status == types.BountyActive && !b.Expired
	default:
		return b.Status.String() == strings.ToLower(q.Status)
	}
}
