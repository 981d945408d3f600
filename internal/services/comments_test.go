package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"forumhub/internal/cache"
	"forumhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreate_NotifiesPostAuthor(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	reader := createUser(t, conn, "reader")
	post := createPost(t, conn, author, "hello")

	comment, err := svc.Comments.Create(ctx, reader, post.ID, nil, "  nice post  ")
	require.NoError(t, err)
	assert.Equal(t, "nice post", comment.Content)
	assert.Equal(t, models.CommentStatusActive, comment.Status)
	assert.False(t, comment.PublishDate.IsZero())

	notes, err := svc.Notifications.List(ctx, author.ID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationTypeCommentPost, notes[0].Type)

	// commenting on your own post does not notify
	_, err = svc.Comments.Create(ctx, author, post.ID, nil, "thanks")
	require.NoError(t, err)
	notes, err = svc.Notifications.List(ctx, author.ID, 10)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestCommentReply_NotifiesParentAuthor(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	first := createUser(t, conn, "first")
	second := createUser(t, conn, "second")
	post := createPost(t, conn, author, "hello")

	parent, err := svc.Comments.Create(ctx, first, post.ID, nil, "first!")
	require.NoError(t, err)

	reply, err := svc.Comments.Reply(ctx, second, parent.ID, "second!")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, parent.ID, *reply.ParentCommentID)
	assert.Equal(t, post.ID, reply.PostID)

	count, err := svc.Notifications.UnreadCount(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCommentCreate_Validation(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	post := createPost(t, conn, author, "hello")
	other := createPost(t, conn, author, "other")
	foreign := createComment(t, conn, author, other, nil, t0)

	_, err := svc.Comments.Create(ctx, author, post.ID, nil, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Comments.Create(ctx, author, post.ID, nil, strings.Repeat("a", maxCommentLength+1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Comments.Create(ctx, author, 999, nil, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	missing := uint(999)
	_, err = svc.Comments.Create(ctx, author, post.ID, &missing, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Comments.Create(ctx, author, post.ID, &foreign.ID, "hi")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Comments.Reply(ctx, author, 999, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentCreate_PunishedUser(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	post := createPost(t, conn, author, "hello")

	author.Status = models.UserStatusMuted
	_, err := svc.Comments.Create(ctx, author, post.ID, nil, "hi")
	assert.ErrorIs(t, err, ErrForbidden)

	expired := time.Now().Add(-time.Hour)
	author.PunishExpires = &expired
	_, err = svc.Comments.Create(ctx, author, post.ID, nil, "hi")
	assert.NoError(t, err)
}

func TestCommentUpdate_AuthorOnly(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	other := createUser(t, conn, "other")
	post := createPost(t, conn, author, "hello")
	comment := createComment(t, conn, author, post, nil, t0)

	_, err := svc.Comments.Update(ctx, other, comment.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Comments.Update(ctx, author, comment.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	_, err = svc.Comments.Update(ctx, author, 999, "edited")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentDelete_RemovesSubtreeAndReversesRating(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	replier := createUser(t, conn, "replier")
	voter := createUser(t, conn, "voter")
	post := createPost(t, conn, author, "hello")

	root := createComment(t, conn, author, post, nil, t0)
	child := createComment(t, conn, replier, post, root, t0.Add(time.Minute))
	grandchild := createComment(t, conn, replier, post, child, t0.Add(2*time.Minute))
	sibling := createComment(t, conn, replier, post, nil, t0.Add(3*time.Minute))

	for _, target := range []Target{CommentTarget(root.ID), CommentTarget(child.ID), CommentTarget(sibling.ID)} {
		_, err := svc.Reactions.React(ctx, voter.ID, target, models.ReactionLike)
		require.NoError(t, err)
	}
	_, err := svc.Reactions.React(ctx, voter.ID, CommentTarget(grandchild.ID), models.ReactionDislike)
	require.NoError(t, err)
	require.Equal(t, 1, ratingOf(t, conn, author.ID))
	require.Equal(t, 1, ratingOf(t, conn, replier.ID))

	require.ErrorIs(t, svc.Comments.Delete(ctx, voter, root.ID), ErrForbidden)
	require.NoError(t, svc.Comments.Delete(ctx, author, root.ID))

	var remaining []models.Comment
	require.NoError(t, conn.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, sibling.ID, remaining[0].ID)

	var reactions int64
	require.NoError(t, conn.Model(&models.Reaction{}).Count(&reactions).Error)
	assert.Equal(t, int64(1), reactions)

	assert.Equal(t, 0, ratingOf(t, conn, author.ID))
	assert.Equal(t, 1, ratingOf(t, conn, replier.ID))

	computed, err := svc.Ratings.Computed(ctx, replier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, computed)
}

func TestCommentDelete_AdminCanDelete(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	admin := createAdmin(t, conn, "mod")
	post := createPost(t, conn, author, "hello")
	comment := createComment(t, conn, author, post, nil, t0)

	require.NoError(t, svc.Comments.Delete(ctx, admin, comment.ID))
	assert.ErrorIs(t, svc.Comments.Delete(ctx, admin, comment.ID), ErrNotFound)
}

func TestCommentTree_HidesInactiveButKeepsReplies(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	admin := createAdmin(t, conn, "mod")
	post := createPost(t, conn, author, "hello")

	root := createComment(t, conn, author, post, nil, t0)
	reply := createComment(t, conn, author, post, root, t0.Add(time.Minute))
	createComment(t, conn, author, post, reply, t0.Add(2*time.Minute))

	_, err := svc.Comments.SetStatus(ctx, author, root.ID, models.CommentStatusInactive)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Comments.SetStatus(ctx, admin, root.ID, "gone")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Comments.SetStatus(ctx, admin, root.ID, models.CommentStatusInactive)
	require.NoError(t, err)

	tree, err := svc.Comments.Tree(ctx, post.ID, false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, hiddenCommentText, tree[0].Content)
	assert.Empty(t, tree[0].ContentHTML)
	assert.Len(t, tree[0].Replies, 2)

	nested, err := svc.Comments.Tree(ctx, post.ID, true)
	require.NoError(t, err)
	require.Len(t, nested, 1)
	require.Len(t, nested[0].Replies, 1)
	assert.Len(t, nested[0].Replies[0].Replies, 1)
}

func TestCommentTree_CacheInvalidatedOnWrite(t *testing.T) {
	svc, conn := newTestServices(t)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	post := createPost(t, conn, author, "hello")

	tree, err := svc.Comments.Tree(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Empty(t, tree)

	_, err = svc.Comments.Create(ctx, author, post.ID, nil, "first")
	require.NoError(t, err)

	tree, err = svc.Comments.Tree(ctx, post.ID, false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "first", tree[0].Content)
	assert.Contains(t, string(tree[0].ContentHTML), "first")

	_, err = svc.Comments.Tree(ctx, 999, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

// hookCache runs beforeTreeSet once, right before the first comment tree is stored.
type hookCache struct {
	cache.Cache
	beforeTreeSet func()
}

func (h *hookCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if hook := h.beforeTreeSet; hook != nil && strings.HasPrefix(key, "comments:tree:") {
		h.beforeTreeSet = nil
		hook()
	}
	h.Cache.Set(ctx, key, value, ttl)
}

func TestCommentTree_WriteDuringBuildIsNotCachedStale(t *testing.T) {
	lru, err := cache.NewLRU(100)
	require.NoError(t, err)
	hc := &hookCache{Cache: lru}
	svc, conn := newTestServicesWithCache(t, hc)
	ctx := context.Background()
	author := createUser(t, conn, "author")
	post := createPost(t, conn, author, "hello")

	_, err = svc.Comments.Create(ctx, author, post.ID, nil, "first")
	require.NoError(t, err)

	hc.beforeTreeSet = func() {
		_, err := svc.Comments.Create(ctx, author, post.ID, nil, "second")
		require.NoError(t, err)
	}
	tree, err := svc.Comments.Tree(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, tree, 1)

	tree, err = svc.Comments.Tree(ctx, post.ID, false)
	require.NoError(t, err)
	assert.Len(t, tree, 2)

	// A reaction landing mid-build must not leave stale counts behind either.
	reader := createUser(t, conn, "reader")
	hc.beforeTreeSet = func() {
		_, err := svc.Reactions.React(ctx, reader.ID, CommentTarget(tree[0].ID), models.ReactionLike)
		require.NoError(t, err)
	}
	_, err = svc.Comments.Tree(ctx, post.ID, true)
	require.NoError(t, err)

	tree, err = svc.Comments.Tree(ctx, post.ID, true)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, int64(1), tree[0].Likes)
}
