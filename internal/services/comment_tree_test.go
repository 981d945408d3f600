package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func view(id uint, parent uint, minute int) CommentView {
	v := CommentView{ID: id, PublishDate: t0.Add(time.Duration(minute) * time.Minute)}
	if parent != 0 {
		p := parent
		v.ParentCommentID = &p
	}
	return v
}

func ids(nodes []*CommentNode) []uint {
	return lo.Map(nodes, func(n *CommentNode, _ int) uint { return n.ID })
}

func TestBuildTree_RootWithRepliesAndOrphan(t *testing.T) {
	tree := BuildTree([]CommentView{
		view(1, 0, 0),
		view(2, 1, 1),
		view(3, 1, 2),
		view(4, 99, 3),
	})

	require.Len(t, tree, 1)
	assert.Equal(t, uint(1), tree[0].ID)
	assert.Equal(t, []uint{2, 3}, ids(tree[0].Replies))
}

func TestBuildTree_Empty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
	assert.Empty(t, BuildNestedTree([]CommentView{}))
}

func TestBuildTree_SortsRootsAndReplies(t *testing.T) {
	tree := BuildTree([]CommentView{
		view(10, 0, 5),
		view(11, 0, 1),
		view(12, 10, 9),
		view(13, 10, 6),
		view(14, 11, 2),
	})

	assert.Equal(t, []uint{11, 10}, ids(tree))
	assert.Equal(t, []uint{14}, ids(tree[0].Replies))
	assert.Equal(t, []uint{13, 12}, ids(tree[1].Replies))
}

func TestBuildTree_TiesBreakOnID(t *testing.T) {
	tree := BuildTree([]CommentView{
		view(3, 0, 0),
		view(1, 0, 0),
		view(2, 0, 0),
	})
	assert.Equal(t, []uint{1, 2, 3}, ids(tree))
}

func TestBuildTree_FlattensDeepReplies(t *testing.T) {
	comments := []CommentView{
		view(1, 0, 0),
		view(2, 1, 1),
		view(3, 2, 2),
		view(4, 3, 3),
	}

	flat := BuildTree(comments)
	require.Len(t, flat, 1)
	assert.Equal(t, []uint{2, 3, 4}, ids(flat[0].Replies))
	for _, r := range flat[0].Replies {
		assert.Empty(t, r.Replies)
	}

	nested := BuildNestedTree(comments)
	require.Len(t, nested, 1)
	require.Equal(t, []uint{2}, ids(nested[0].Replies))
	require.Equal(t, []uint{3}, ids(nested[0].Replies[0].Replies))
	assert.Equal(t, []uint{4}, ids(nested[0].Replies[0].Replies[0].Replies))
}

func TestBuildTree_DropsOrphanSubtree(t *testing.T) {
	comments := []CommentView{
		view(1, 0, 0),
		view(5, 42, 1), // parent missing
		view(6, 5, 2),  // child of an orphan
		view(7, 6, 3),
	}

	assert.Equal(t, []uint{1}, ids(BuildTree(comments)))
	assert.Empty(t, BuildTree(comments)[0].Replies)
	assert.Equal(t, []uint{1}, ids(BuildNestedTree(comments)))
}

func TestBuildTree_DropsCycles(t *testing.T) {
	comments := []CommentView{
		view(1, 0, 0),
		view(2, 3, 1),
		view(3, 2, 2),
		view(4, 1, 3),
	}

	flat := BuildTree(comments)
	require.Len(t, flat, 1)
	assert.Equal(t, []uint{4}, ids(flat[0].Replies))

	nested := BuildNestedTree(comments)
	require.Len(t, nested, 1)
	assert.Equal(t, []uint{4}, ids(nested[0].Replies))
}

func TestBuildTree_DuplicateIDKeepsEarliest(t *testing.T) {
	early := view(1, 0, 0)
	early.Content = "early"
	late := view(1, 0, 5)
	late.Content = "late"

	for _, input := range [][]CommentView{{early, late}, {late, early}} {
		tree := BuildTree(input)
		require.Len(t, tree, 1)
		assert.Equal(t, "early", tree[0].Content)
	}

	// Same publish date: the root wins over the reply, then content decides.
	asReply := view(2, 1, 0)
	asRoot := view(2, 0, 0)
	b := view(2, 0, 0)
	b.Content = "b"
	a := view(2, 0, 0)
	a.Content = "a"
	for _, input := range [][]CommentView{{asReply, b, a, asRoot}, {asRoot, a, b, asReply}, {a, asReply, asRoot, b}} {
		tree := BuildNestedTree(append([]CommentView{early}, input...))
		require.Len(t, tree, 2)
		assert.Equal(t, uint(2), tree[1].ID)
		assert.Empty(t, tree[1].Content)
	}
}

func TestBuildTree_InputOrderDoesNotMatter(t *testing.T) {
	comments := []CommentView{
		view(1, 0, 0),
		view(2, 1, 4),
		view(3, 1, 2),
		view(4, 2, 3),
		view(5, 0, 1),
		view(6, 5, 7),
		view(7, 4, 8),
		view(8, 77, 1),
	}
	wantFlat := BuildTree(comments)
	wantNested := BuildNestedTree(comments)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]CommentView(nil), comments...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, wantFlat, BuildTree(shuffled))
		assert.Equal(t, wantNested, BuildNestedTree(shuffled))
	}
}

func TestBuildTree_DoesNotMutateInput(t *testing.T) {
	comments := []CommentView{view(2, 1, 1), view(1, 0, 0)}
	before := append([]CommentView(nil), comments...)

	BuildTree(comments)
	BuildNestedTree(comments)
	assert.Equal(t, before, comments)
}
