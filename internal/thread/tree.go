// Package thread rebuilds a post's comment forest from the flat list the API
// returns and decides which comments may still receive replies.
package thread

import (
	"fmt"

	"github.com/fragmede/hams/internal/api"
)

// Tree is a comment forest.
//
// Roots and every ChildrenOf bucket keep the relative order of the input.
// A comment whose parent is missing from the input sits in the bucket keyed by
// that missing ID; nothing links to the bucket, so the comment is never
// reachable and has no DepthOf entry.
type Tree struct {
	Roots      []*api.Comment
	ChildrenOf map[int64][]*api.Comment
	DepthOf    map[int64]int

	// descendants counts every reachable comment below an ID.
	descendants map[int64]int
}

// MalformedThreadError reports parent references that cannot form a forest:
// a cycle (including a comment that is its own parent) or a comment ID that
// appears twice along the reachable tree.
type MalformedThreadError struct {
	CommentIDs []int64
	Reason     string
}

func (e *MalformedThreadError) Error() string {
	return fmt.Sprintf("malformed comment thread: %s %v", e.Reason, e.CommentIDs)
}

// Build groups comments by parent and assigns depths, roots being depth 1.
//
// Depths are assigned breadth-first from an explicit queue, so arbitrarily
// deep threads do not grow the call stack. Dangling parent references are
// tolerated silently.
func Build(comments []*api.Comment) (*Tree, error) {
	t := &Tree{
		ChildrenOf:  make(map[int64][]*api.Comment),
		DepthOf:     make(map[int64]int, len(comments)),
		descendants: make(map[int64]int, len(comments)),
	}

	total := 0
	for _, c := range comments {
		if c == nil {
			continue
		}
		total++
		if c.ParentCommentID == nil {
			t.Roots = append(t.Roots, c)
			continue
		}
		pid := *c.ParentCommentID
		t.ChildrenOf[pid] = append(t.ChildrenOf[pid], c)
	}

	queue := make([]*api.Comment, 0, total)
	for _, r := range t.Roots {
		if _, seen := t.DepthOf[r.ID]; seen {
			return nil, &MalformedThreadError{CommentIDs: []int64{r.ID}, Reason: "duplicate comment id"}
		}
		t.DepthOf[r.ID] = 1
		queue = append(queue, r)
	}
	for head := 0; head < len(queue); head++ {
		c := queue[head]
		depth := t.DepthOf[c.ID]
		for _, kid := range t.ChildrenOf[c.ID] {
			if _, seen := t.DepthOf[kid.ID]; seen {
				return nil, &MalformedThreadError{CommentIDs: []int64{kid.ID}, Reason: "duplicate comment id"}
			}
			t.DepthOf[kid.ID] = depth + 1
			queue = append(queue, kid)
		}
	}

	// Parents precede children in queue, so walking it backwards sums subtrees.
	for i := len(queue) - 1; i >= 0; i-- {
		c := queue[i]
		if c.ParentCommentID != nil {
			t.descendants[*c.ParentCommentID] += 1 + t.descendants[c.ID]
		}
	}

	if len(queue) < total {
		if err := checkUnreached(comments, t.DepthOf); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// checkUnreached follows the parent chain of every comment that was not
// reached from a root. A chain that ends at a missing parent is a dangling
// reference and is fine; a chain that revisits a comment is a cycle.
func checkUnreached(comments []*api.Comment, reached map[int64]int) error {
	byID := make(map[int64]*api.Comment, len(comments))
	for _, c := range comments {
		if c == nil {
			continue
		}
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = c
		}
	}

	settled := make(map[int64]bool)
	for _, c := range comments {
		if c == nil {
			continue
		}
		if _, ok := reached[c.ID]; ok {
			continue
		}

		onPath := make(map[int64]int)
		var path []int64
		cur := c
		for cur != nil && !settled[cur.ID] {
			if at, ok := onPath[cur.ID]; ok {
				return &MalformedThreadError{CommentIDs: path[at:], Reason: "cyclic parent reference"}
			}
			onPath[cur.ID] = len(path)
			path = append(path, cur.ID)
			if cur.ParentCommentID == nil {
				break
			}
			cur = byID[*cur.ParentCommentID]
		}
		for _, id := range path {
			settled[id] = true
		}
	}
	return nil
}

// Depth returns the depth of a reachable comment.
func (t *Tree) Depth(id int64) (int, bool) {
	d, ok := t.DepthOf[id]
	return d, ok
}

// Children returns the direct replies of a comment in input order.
func (t *Tree) Children(id int64) []*api.Comment {
	return t.ChildrenOf[id]
}

// Descendants returns how many reachable comments sit below id.
func (t *Tree) Descendants(id int64) int {
	return t.descendants[id]
}

// Len returns the number of comments reachable from a root.
func (t *Tree) Len() int {
	return len(t.DepthOf)
}

// CanReply reports whether a comment at depth may receive another reply
// under a maximum depth of maxDepth. The server enforces the same limit;
// this check only decides what the client offers.
func CanReply(depth, maxDepth int) bool {
	return depth < maxDepth
}

// CanReply reports whether the comment id is reachable and below maxDepth.
func (t *Tree) CanReply(id int64, maxDepth int) bool {
	d, ok := t.DepthOf[id]
	return ok && CanReply(d, maxDepth)
}
