package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint) *uint { return &v }

func view(id uint, replyTo *uint) CommentView {
	return CommentView{ID: id, Article: 1, Content: "c", AuthorName: "u", ReplyTo: replyTo}
}

func ids(nodes []*CommentView) []uint {
	out := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestAssembleTreeNesting(t *testing.T) {
	// newest first, the way the store lists them
	flat := []CommentView{
		view(5, uptr(2)),
		view(4, uptr(1)),
		view(3, nil),
		view(2, uptr(1)),
		view(1, nil),
	}
	roots := AssembleTree(flat)

	require.Equal(t, []uint{3, 1}, ids(roots))
	assert.Empty(t, roots[0].Replies)
	require.Equal(t, []uint{4, 2}, ids(roots[1].Replies))
	require.Equal(t, []uint{5}, ids(roots[1].Replies[1].Replies))
}

func TestAssembleTreeDropsOrphans(t *testing.T) {
	flat := []CommentView{
		view(1, nil),
		view(2, uptr(99)),
		view(3, uptr(2)),
	}
	roots := AssembleTree(flat)

	require.Equal(t, []uint{1}, ids(roots))
	assert.Empty(t, roots[0].Replies)
	assert.Len(t, FlattenTree(roots), 1)
}

func TestAssembleTreeDeepChain(t *testing.T) {
	flat := []CommentView{view(1, nil)}
	for id := uint(2); id <= 200; id++ {
		flat = append(flat, view(id, uptr(id-1)))
	}
	roots := AssembleTree(flat)

	require.Len(t, roots, 1)
	depth := 0
	for n := roots[0]; n != nil; depth++ {
		if len(n.Replies) == 0 {
			n = nil
			continue
		}
		n = n.Replies[0]
	}
	assert.Equal(t, 200, depth)
}

func TestAssembleTreeEmpty(t *testing.T) {
	roots := AssembleTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestAssembleTreeLeavesInputUntouched(t *testing.T) {
	flat := []CommentView{view(1, nil), view(2, uptr(1))}
	_ = AssembleTree(flat)
	assert.Nil(t, flat[0].Replies)
}

func TestFlattenTreeRoundTrip(t *testing.T) {
	flat := []CommentView{
		view(1, nil),
		view(2, uptr(1)),
		view(3, uptr(2)),
		view(4, nil),
		view(5, uptr(4)),
	}
	got := FlattenTree(AssembleTree(flat))

	require.Len(t, got, len(flat))
	for i := range flat {
		assert.Equal(t, flat[i].ID, got[i].ID)
		assert.Equal(t, flat[i].ReplyTo, got[i].ReplyTo)
		assert.Nil(t, got[i].Replies)
	}
}
