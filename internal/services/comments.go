package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"forumhub/internal/models"
	"forumhub/internal/utils"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	maxCommentLength      = 10000
	hiddenCommentText     = "This comment has been hidden by a moderator."
	defaultCommentPerPage = 50
)

type CommentService struct {
	db        *gorm.DB
	reactions *ReactionLedger
	trees     *TreeCache
	now       func() time.Time
}

func NewCommentService(db *gorm.DB, reactions *ReactionLedger, trees *TreeCache) *CommentService {
	return &CommentService{db: db, reactions: reactions, trees: trees, now: time.Now}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", validation("content cannot be empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", validation("content is too long")
	}
	return content, nil
}

// Create adds a comment to a post. A non-nil parentID makes it a reply; the
// parent must exist and belong to the same post.
func (s *CommentService) Create(ctx context.Context, actor *models.User, postID uint, parentID *uint, content string) (*models.Comment, error) {
	if actor.Punished(s.now()) {
		return nil, fmtForbidden("your account cannot comment right now")
	}
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		PostID:          postID,
		UserID:          actor.ID,
		ParentCommentID: parentID,
		Content:         content,
		Status:          models.CommentStatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id", "title").First(&post, postID).Error; err != nil {
			return notFound(err, "post")
		}

		var parent models.Comment
		if parentID != nil {
			if err := tx.Select("id", "post_id", "user_id").First(&parent, *parentID).Error; err != nil {
				return notFound(err, "parent comment")
			}
			if parent.PostID != postID {
				return validation("parent comment belongs to another post")
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		// A reply notifies the parent's author, a top-level comment the post author.
		if parentID != nil {
			return notify(tx, parent.UserID, actor.ID, models.NotificationTypeReplyComment, post.ID, comment.ID,
				actor.Username+" replied to your comment on \""+post.Title+"\"")
		}
		return notify(tx, post.UserID, actor.ID, models.NotificationTypeCommentPost, post.ID, comment.ID,
			actor.Username+" commented on \""+post.Title+"\"")
	})
	if err != nil {
		return nil, err
	}

	s.trees.Invalidate(ctx, postID)
	slog.Debug("comment created", "comment_id", comment.ID, "post_id", postID, "parent_id", parentID)
	return &comment, nil
}

// Reply creates a reply to parentID on the parent's post.
func (s *CommentService) Reply(ctx context.Context, actor *models.User, parentID uint, content string) (*models.Comment, error) {
	var parent models.Comment
	if err := s.db.WithContext(ctx).Select("id", "post_id").First(&parent, parentID).Error; err != nil {
		return nil, notFound(err, "parent comment")
	}
	return s.Create(ctx, actor, parent.PostID, &parent.ID, content)
}

func (s *CommentService) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	return &comment, nil
}

// Update edits the content. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, actor *models.User, id uint, content string) (*models.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID {
		return nil, fmtForbidden("only the author can edit this comment")
	}

	if err := s.db.WithContext(ctx).Model(comment).Update("content", content).Error; err != nil {
		return nil, err
	}
	comment.Content = content

	s.trees.Invalidate(ctx, comment.PostID)
	return comment, nil
}

// SetStatus activates or hides a comment. Admin only.
func (s *CommentService) SetStatus(ctx context.Context, actor *models.User, id uint, status string) (*models.Comment, error) {
	if !actor.IsAdmin() {
		return nil, fmtForbidden("admin only")
	}
	if status != models.CommentStatusActive && status != models.CommentStatusInactive {
		return nil, validation("unknown comment status %q", status)
	}

	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(comment).Update("status", status).Error; err != nil {
		return nil, err
	}
	comment.Status = status

	s.trees.Invalidate(ctx, comment.PostID)
	return comment, nil
}

// Delete removes a comment with its whole reply subtree and every reaction on
// those comments, reversing the rating the reactions had contributed.
// Authors may delete their own comments, admins any comment.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, id uint) error {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID && !actor.IsAdmin() {
		return fmtForbidden("only the author or an admin can delete this comment")
	}

	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := commentSubtree(tx, comment.PostID, comment.ID)
		if err != nil {
			return err
		}
		removed = len(ids)
		if err := deleteComments(tx, ids); err != nil {
			return err
		}
		if comment.UserID != actor.ID {
			return notifySystem(tx, comment.UserID, "One of your comments was removed by a moderator.")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.trees.Invalidate(ctx, comment.PostID)
	slog.Info("comment deleted", "comment_id", id, "by", actor.ID, "removed", removed)
	return nil
}

// ListByPost returns the post's comments as a flat list in publish order.
func (s *CommentService) ListByPost(ctx context.Context, postID uint) ([]CommentView, error) {
	db := s.db.WithContext(ctx)

	var post models.Post
	if err := db.Select("id").First(&post, postID).Error; err != nil {
		return nil, notFound(err, "post")
	}

	var comments []models.Comment
	if err := db.Preload("User").
		Where("post_id = ?", postID).
		Order("publish_date ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	counts, err := s.reactions.CountsFor(ctx, models.TargetComment, lo.Map(comments, func(c models.Comment, _ int) uint {
		return c.ID
	}))
	if err != nil {
		return nil, err
	}

	return lo.Map(comments, func(c models.Comment, _ int) CommentView {
		return toCommentView(c, counts[c.ID])
	}), nil
}

// Tree returns the post's comments as a forest; nested selects full depth
// instead of the two-level layout.
func (s *CommentService) Tree(ctx context.Context, postID uint, nested bool) ([]*CommentNode, error) {
	generation := s.trees.Generation(ctx, postID)
	if tree, ok := s.trees.Get(ctx, postID, generation, nested); ok {
		return tree, nil
	}

	views, err := s.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	var tree []*CommentNode
	if nested {
		tree = BuildNestedTree(views)
	} else {
		tree = BuildTree(views)
	}

	s.trees.Set(ctx, postID, generation, nested, tree)
	return tree, nil
}

// ListByUser returns a user's most recent comments.
func (s *CommentService) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Comment, error) {
	if limit <= 0 {
		limit = defaultCommentPerPage
	}
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("publish_date DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// ListRecent feeds the admin console.
func (s *CommentService) ListRecent(ctx context.Context, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Preload("User").
		Order("publish_date DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func toCommentView(c models.Comment, counts ReactionCounts) CommentView {
	view := CommentView{
		ID:              c.ID,
		PostID:          c.PostID,
		ParentCommentID: c.ParentCommentID,
		AuthorID:        c.UserID,
		AuthorName:      c.User.Username,
		AuthorAvatar:    c.User.Avatar,
		Content:         c.Content,
		Status:          c.Status,
		PublishDate:     c.PublishDate,
		Likes:           counts.Likes,
		Dislikes:        counts.Dislikes,
	}
	if c.Active() {
		view.ContentHTML = utils.RenderMarkdown(c.Content)
	} else {
		view.Content = hiddenCommentText
	}
	return view
}

// commentSubtree returns rootID and every comment below it on the same post.
func commentSubtree(tx *gorm.DB, postID, rootID uint) ([]uint, error) {
	var rows []models.Comment
	if err := tx.Select("id", "parent_comment_id").Where("post_id = ?", postID).Find(&rows).Error; err != nil {
		return nil, err
	}

	children := make(map[uint][]uint, len(rows))
	for _, r := range rows {
		if r.ParentCommentID != nil {
			children[*r.ParentCommentID] = append(children[*r.ParentCommentID], r.ID)
		}
	}

	ids := []uint{rootID}
	seen := map[uint]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}
	return ids, nil
}

// deleteComments removes the comments and their reactions and takes back the
// rating those reactions gave each comment author.
func deleteComments(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	type authorSum struct {
		UserID uint
		Total  int
	}
	var sums []authorSum
	if err := tx.Model(&models.Reaction{}).
		Select("comments.user_id AS user_id, "+reactionSumExpr+" AS total").
		Joins("JOIN comments ON reactions.target_kind = ? AND reactions.target_id = comments.id", models.TargetComment).
		Where("comments.id IN ?", ids).
		Group("comments.user_id").
		Scan(&sums).Error; err != nil {
		return err
	}
	for _, s := range sums {
		if err := AdjustRating(tx, s.UserID, -s.Total, ActionContentDeleted); err != nil {
			return err
		}
	}

	if err := tx.Where("target_kind = ? AND target_id IN ?", models.TargetComment, ids).
		Delete(&models.Reaction{}).Error; err != nil {
		return err
	}
	if err := tx.Where("comment_id IN ?", ids).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
}

func notify(tx *gorm.DB, receiverID, actorID uint, typ models.NotificationType, postID, commentID uint, reason string) error {
	// never notify yourself
	if receiverID == actorID {
		return nil
	}
	notification := models.Notification{
		UserID:    receiverID,
		ActorID:   &actorID,
		Type:      typ,
		PostID:    &postID,
		CommentID: &commentID,
		Reason:    reason,
	}
	return tx.Create(&notification).Error
}

// notifySystem sends a moderator notice with no actor attached.
func notifySystem(tx *gorm.DB, receiverID uint, reason string) error {
	return tx.Create(&models.Notification{
		UserID: receiverID,
		Type:   models.NotificationTypeSystem,
		Reason: reason,
	}).Error
}
