package services

import (
	"context"
	"fmt"
	"log/slog"

	"forumhub/internal/metrics"
	"forumhub/internal/models"

	"gorm.io/gorm"
)

// Rating log actions.
const (
	ActionContentDeleted  = "content deleted"
	ActionRatingRecompute = "rating recomputed"
)

func reactionAction(kind models.TargetKind, typ models.ReactionType) string {
	return fmt.Sprintf("%s %sd", kind, typ)
}

func reactionRemovedAction(kind models.TargetKind, typ models.ReactionType) string {
	return fmt.Sprintf("%s %s removed", kind, typ)
}

// AdjustRating appends a RatingLog entry and moves User.Rating by amount.
// It must run on the caller's transaction so the rating moves together with
// whatever caused it.
func AdjustRating(tx *gorm.DB, userID uint, amount int, action string) error {
	if amount == 0 {
		return nil
	}

	log := models.RatingLog{
		UserID: userID,
		Amount: amount,
		Action: action,
	}
	if err := tx.Create(&log).Error; err != nil {
		return err
	}

	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("rating", gorm.Expr("rating + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return nil
}

// reactionSumExpr scores a reaction row as +1 (like) or -1 (dislike).
const reactionSumExpr = "COALESCE(SUM(CASE WHEN reactions.type = 'like' THEN 1 ELSE -1 END), 0)"

type RatingService struct {
	db *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

func (s *RatingService) Logs(ctx context.Context, userID uint, limit int) ([]models.RatingLog, error) {
	var logs []models.RatingLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Computed derives a user's rating from the reactions their posts and comments received.
func (s *RatingService) Computed(ctx context.Context, userID uint) (int, error) {
	return computedRating(s.db.WithContext(ctx), userID)
}

func computedRating(tx *gorm.DB, userID uint) (int, error) {
	var fromPosts, fromComments int64
	if err := tx.Model(&models.Reaction{}).
		Select(reactionSumExpr).
		Joins("JOIN posts ON reactions.target_kind = ? AND reactions.target_id = posts.id", models.TargetPost).
		Where("posts.user_id = ?", userID).
		Scan(&fromPosts).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Reaction{}).
		Select(reactionSumExpr).
		Joins("JOIN comments ON reactions.target_kind = ? AND reactions.target_id = comments.id", models.TargetComment).
		Where("comments.user_id = ?", userID).
		Scan(&fromComments).Error; err != nil {
		return 0, err
	}
	return int(fromPosts + fromComments), nil
}

// Recompute resets the stored counter to the value derived from reactions and
// returns the new rating together with the correction that was applied.
func (s *RatingService) Recompute(ctx context.Context, userID uint) (rating int, drift int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "rating").First(&user, userID).Error; err != nil {
			return notFound(err, "user")
		}

		computed, err := computedRating(tx, userID)
		if err != nil {
			return err
		}

		drift = computed - user.Rating
		rating = computed
		return AdjustRating(tx, userID, drift, ActionRatingRecompute)
	})
	if err != nil {
		return 0, 0, err
	}

	if drift != 0 {
		metrics.RatingDrift.Inc()
		slog.Warn("rating drift corrected", "user_id", userID, "drift", drift, "rating", rating)
	}
	return rating, drift, nil
}
