package services

import (
	"cmp"
	"html/template"
	"slices"
	"time"
)

// CommentView is the render model of one comment.
type CommentView struct {
	ID              uint          `json:"id"`
	PostID          uint          `json:"post_id"`
	ParentCommentID *uint         `json:"parent_comment_id"`
	AuthorID        uint          `json:"author_id"`
	AuthorName      string        `json:"author_name"`
	AuthorAvatar    string        `json:"author_avatar"`
	Content         string        `json:"content"`
	ContentHTML     template.HTML `json:"content_html"`
	Status          string        `json:"status"`
	PublishDate     time.Time     `json:"publish_date"`
	Likes           int64         `json:"likes"`
	Dislikes        int64         `json:"dislikes"`
}

type CommentNode struct {
	CommentView
	Replies []*CommentNode `json:"replies"`
}

// BuildTree arranges a flat comment list into two rendered levels: root
// comments, each carrying every one of its descendants as a direct reply.
// Comments whose ancestor chain does not end at a root in the input (missing
// parent or a parent cycle) are dropped. Roots and each reply list are sorted
// by publish date, then id, so the result does not depend on input order.
func BuildTree(comments []CommentView) []*CommentNode {
	byID := indexComments(comments)

	// rootOf memoizes the root each comment resolves to; 0 marks an orphan.
	rootOf := make(map[uint]uint, len(byID))
	var resolve func(id uint, seen map[uint]bool) uint
	resolve = func(id uint, seen map[uint]bool) uint {
		if r, ok := rootOf[id]; ok {
			return r
		}
		node := byID[id]
		var root uint
		switch {
		case node.ParentCommentID == nil:
			root = id
		case seen[id]:
			root = 0
		default:
			if _, ok := byID[*node.ParentCommentID]; ok {
				seen[id] = true
				root = resolve(*node.ParentCommentID, seen)
			}
		}
		rootOf[id] = root
		return root
	}

	roots := make([]*CommentNode, 0)
	for _, node := range byID {
		if node.ParentCommentID == nil {
			roots = append(roots, node)
		}
	}
	for id, node := range byID {
		if node.ParentCommentID == nil {
			continue
		}
		if root := resolve(id, map[uint]bool{}); root != 0 {
			byID[root].Replies = append(byID[root].Replies, node)
		}
	}

	sortNodes(roots)
	for _, root := range roots {
		sortNodes(root.Replies)
	}
	return roots
}

// BuildNestedTree keeps the full reply depth: every comment hangs under its
// own parent. Orphans and their subtrees are dropped, as in BuildTree.
func BuildNestedTree(comments []CommentView) []*CommentNode {
	byID := indexComments(comments)

	roots := make([]*CommentNode, 0)
	for _, node := range byID {
		if node.ParentCommentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := byID[*node.ParentCommentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}

	// Only nodes reachable from a root are sorted and returned; a parent
	// cycle is never reachable.
	var sortLevel func(level []*CommentNode)
	sortLevel = func(level []*CommentNode) {
		sortNodes(level)
		for _, n := range level {
			sortLevel(n.Replies)
		}
	}
	sortLevel(roots)
	return roots
}

// indexComments copies the input into fresh nodes keyed by id. Of several
// entries sharing an id, the one ordered first by compareDuplicates is kept.
func indexComments(comments []CommentView) map[uint]*CommentNode {
	byID := make(map[uint]*CommentNode, len(comments))
	for _, c := range comments {
		if kept, dup := byID[c.ID]; dup && compareDuplicates(kept.CommentView, c) <= 0 {
			continue
		}
		byID[c.ID] = &CommentNode{CommentView: c, Replies: []*CommentNode{}}
	}
	return byID
}

// compareDuplicates orders two entries with the same id: earliest publish
// date, then root before reply and lower parent id, then content.
func compareDuplicates(a, b CommentView) int {
	if c := a.PublishDate.Compare(b.PublishDate); c != 0 {
		return c
	}
	if c := cmp.Compare(parentOrZero(a), parentOrZero(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Content, b.Content); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Status, b.Status); c != 0 {
		return c
	}
	return cmp.Compare(a.AuthorID, b.AuthorID)
}

func parentOrZero(c CommentView) uint {
	if c.ParentCommentID == nil {
		return 0
	}
	return *c.ParentCommentID
}

func sortNodes(nodes []*CommentNode) {
	slices.SortFunc(nodes, func(a, b *CommentNode) int {
		if c := a.PublishDate.Compare(b.PublishDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
