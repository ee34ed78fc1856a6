package readmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bountyboard/bounty-backend/types"
)

func queryFixture() []*types.Bounty {
	return []*types.Bounty{
		{ID: 0, Title: "Design a logo", Reward: "300", Deadline: 50, Status: types.BountyActive},
		{ID: 1, Title: "Write docs", Description: "API reference", Reward: "900", Deadline: 10, Status: types.BountyCompleted},
		{ID: 2, Title: "Fix bug", Description: "logo renders blurry", Reward: "100", Deadline: 30, Status: types.BountyActive, Expired: true},
	}
}

func ids(list []*types.Bounty) []uint64 {
	out := make([]uint64, len(list))
	for i, b := range list {
		out[i] = b.ID
	}
	return out
}

func TestQuery_Sort(t *testing.T) {
	list := queryFixture()
	assert.Equal(t, []uint64{2, 1, 0}, ids(Query{}.Apply(list)))
	assert.Equal(t, []uint64{1, 2, 0}, ids(Query{Sort: SortDeadline}.Apply(list)))
	assert.Equal(t, []uint64{1, 0, 2}, ids(Query{Sort: SortReward}.Apply(list)))
}

func TestQuery_Filter(t *testing.T) {
	list := queryFixture()
	assert.Equal(t, []uint64{2, 0}, ids(Query{Search: "LOGO"}.Apply(list)))
	assert.Equal(t, []uint64{1}, ids(Query{Status: "completed"}.Apply(list)))
	assert.Equal(t, []uint64{2}, ids(Query{Status: FilterExpired}.Apply(list)))
	assert.Equal(t, []uint64{0}, ids(Query{Status: FilterOpen}.Apply(list)))
	assert.Empty(t, Query{Status: "cancelled"}.Apply(list))
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	list := queryFixture()
	_ = Query{Sort: SortReward, Search: "o"}.Apply(list)
	assert.Equal(t, []uint64{0, 1, 2}, ids(list))
}
