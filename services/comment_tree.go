package services

// AssembleTree nests a flat, ordered list of comments into reply trees.
//
// Roots keep their input order, and so do the replies under each parent.
// A reply whose parent is not in the input is dropped together with
// everything below it. Depth is unbounded. Runs in O(n).
func AssembleTree(flat []CommentView) []*CommentView {
	// arena owns the nodes; index maps comment id to its slot
	arena := make([]CommentView, len(flat))
	copy(arena, flat)
	index := make(map[uint]*CommentView, len(arena))
	for i := range arena {
		arena[i].Replies = nil
		index[arena[i].ID] = &arena[i]
	}

	roots := []*CommentView{}
	for i := range arena {
		node := &arena[i]
		if node.ReplyTo == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := index[*node.ReplyTo]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}
	return roots
}

// FlattenTree walks trees in pre-order.
func FlattenTree(roots []*CommentView) []CommentView {
	out := []CommentView{}
	var walk func(nodes []*CommentView)
	walk = func(nodes []*CommentView) {
		for _, n := range nodes {
			flat := *n
			flat.Replies = nil
			out = append(out, flat)
			walk(n.Replies)
		}
	}
	walk(roots)
	return out
}
