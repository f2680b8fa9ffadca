package thread

import "github.com/fragmede/hams/internal/api"

// CollapseState tracks collapsed comment IDs.
type CollapseState map[int64]bool

// Row is a comment flattened from the tree for display.
type Row struct {
	Comment     *api.Comment
	Depth       int
	Collapsed   bool
	Descendants int
	CanReply    bool
}

// Flatten lists the forest in display order: each comment followed by its
// replies, roots in input order. Replies under a collapsed comment are skipped.
func (t *Tree) Flatten(cs CollapseState, maxDepth int) []Row {
	rows := make([]Row, 0, len(t.DepthOf))

	stack := make([]*api.Comment, 0, len(t.Roots))
	for i := len(t.Roots) - 1; i >= 0; i-- {
		stack = append(stack, t.Roots[i])
	}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		depth := t.DepthOf[c.ID]
		rows = append(rows, Row{
			Comment:     c,
			Depth:       depth,
			Collapsed:   cs[c.ID],
			Descendants: t.descendants[c.ID],
			CanReply:    CanReply(depth, maxDepth),
		})
		if cs[c.ID] {
			continue
		}
		kids := t.ChildrenOf[c.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return rows
}

// ParentIndex returns the index of the parent comment in the flat list.
func ParentIndex(rows []Row, idx int) int {
	if idx < 0 || idx >= len(rows) || rows[idx].Comment.ParentCommentID == nil {
		return -1
	}
	parentID := *rows[idx].Comment.ParentCommentID
	for i := idx - 1; i >= 0; i-- {
		if rows[i].Comment.ID == parentID {
			return i
		}
	}
	return -1
}

// NextSiblingIndex returns the index of the next comment at the same depth
// under the same parent.
func NextSiblingIndex(rows []Row, idx int) int {
	if idx < 0 || idx >= len(rows) {
		return -1
	}
	depth := rows[idx].Depth
	for i := idx + 1; i < len(rows); i++ {
		if rows[i].Depth < depth {
			return -1 // went up in tree, no more siblings
		}
		if rows[i].Depth == depth {
			return i
		}
	}
	return -1
}
