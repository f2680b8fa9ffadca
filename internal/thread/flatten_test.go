package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/hams/internal/api"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := Build([]*api.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, nil),
		comment(4, ptr(2)),
		comment(5, ptr(1)),
	})
	require.NoError(t, err)
	return tree
}

func rowIDs(rows []Row) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.Comment.ID
	}
	return out
}

func TestFlattenOrder(t *testing.T) {
	rows := sampleTree(t).Flatten(nil, 3)

	assert.Equal(t, []int64{1, 2, 4, 5, 3}, rowIDs(rows))
	assert.Equal(t, []int{1, 2, 3, 2, 1}, []int{rows[0].Depth, rows[1].Depth, rows[2].Depth, rows[3].Depth, rows[4].Depth})
	assert.Equal(t, 3, rows[0].Descendants)
	assert.Equal(t, 1, rows[1].Descendants)
	assert.Equal(t, 0, rows[4].Descendants)
}

func TestFlattenReplyEligibility(t *testing.T) {
	rows := sampleTree(t).Flatten(nil, 2)

	eligible := make(map[int64]bool)
	for _, r := range rows {
		eligible[r.Comment.ID] = r.CanReply
	}
	assert.Equal(t, map[int64]bool{1: true, 2: false, 3: true, 4: false, 5: false}, eligible)
}

func TestFlattenCollapsed(t *testing.T) {
	rows := sampleTree(t).Flatten(CollapseState{1: true}, 3)

	assert.Equal(t, []int64{1, 3}, rowIDs(rows))
	assert.True(t, rows[0].Collapsed)
	assert.Equal(t, 3, rows[0].Descendants, "collapsed row still reports hidden replies")
}

func TestParentIndex(t *testing.T) {
	rows := sampleTree(t).Flatten(nil, 3)

	assert.Equal(t, -1, ParentIndex(rows, 0))
	assert.Equal(t, 0, ParentIndex(rows, 1))
	assert.Equal(t, 1, ParentIndex(rows, 2))
	assert.Equal(t, 0, ParentIndex(rows, 3))
	assert.Equal(t, -1, ParentIndex(rows, 99))
}

func TestNextSiblingIndex(t *testing.T) {
	rows := sampleTree(t).Flatten(nil, 3)

	assert.Equal(t, 4, NextSiblingIndex(rows, 0), "root 1 -> root 3")
	assert.Equal(t, 3, NextSiblingIndex(rows, 1), "reply 2 -> reply 5")
	assert.Equal(t, -1, NextSiblingIndex(rows, 2))
	assert.Equal(t, -1, NextSiblingIndex(rows, 4))
	assert.Equal(t, -1, NextSiblingIndex(rows, -1))
}
