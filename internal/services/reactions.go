package services

import (
	"context"
	"fmt"

	"forumhub/internal/metrics"
	"forumhub/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Target identifies the post or comment a reaction applies to.
type Target struct {
	Kind models.TargetKind
	ID   uint
}

func PostTarget(id uint) Target    { return Target{Kind: models.TargetPost, ID: id} }
func CommentTarget(id uint) Target { return Target{Kind: models.TargetComment, ID: id} }

type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// ReactionResult describes the actor's reaction state on a target after an operation.
type ReactionResult struct {
	Type           models.ReactionType `json:"type,omitempty"` // empty when the actor has no reaction
	Created        bool                `json:"created"`
	AlreadyReacted bool                `json:"already_reacted"`
	Removed        bool                `json:"removed"`
	ReactionCounts
}

// ReactionLedger keeps at most one like or dislike per (user, target) and
// moves the target author's rating in the same transaction as the reaction row.
type ReactionLedger struct {
	db    *gorm.DB
	trees *TreeCache
}

func NewReactionLedger(db *gorm.DB, trees *TreeCache) *ReactionLedger {
	return &ReactionLedger{db: db, trees: trees}
}

// React records typ from actor on target.
//
// A repeated reaction of the same type is a no-op reported via AlreadyReacted.
// A reaction of the opposite type fails with ErrConflict; the caller has to
// Unreact first. The unique (user, target) index plus ON CONFLICT DO NOTHING
// means only the request whose insert lands moves the rating.
func (l *ReactionLedger) React(ctx context.Context, actorID uint, target Target, typ models.ReactionType) (*ReactionResult, error) {
	if !typ.Valid() {
		return nil, validation("unknown reaction type %q", typ)
	}
	if !target.Kind.Valid() {
		return nil, validation("unknown target kind %q", target.Kind)
	}

	result := &ReactionResult{}
	var postID uint
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authorID, pid, err := loadTarget(tx, target)
		if err != nil {
			return err
		}
		postID = pid

		reaction := models.Reaction{
			UserID:     actorID,
			TargetKind: target.Kind,
			TargetID:   target.ID,
			Type:       typ,
		}
		if target.Kind == models.TargetPost {
			reaction.PostID = &target.ID
		} else {
			reaction.CommentID = &target.ID
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reaction)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			existing, err := findReaction(tx, actorID, target)
			if err != nil {
				return err
			}
			if existing.Type != typ {
				metrics.Reactions.WithLabelValues(string(target.Kind), string(typ), "conflict").Inc()
				return fmt.Errorf("%w: %s already has a %s from this user, remove it first", ErrConflict, target.Kind, existing.Type)
			}
			result.Type = existing.Type
			result.AlreadyReacted = true
			return nil
		}

		if err := AdjustRating(tx, authorID, typ.Value(), reactionAction(target.Kind, typ)); err != nil {
			return err
		}
		result.Type = typ
		result.Created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		metrics.Reactions.WithLabelValues(string(target.Kind), string(typ), "created").Inc()
		l.invalidate(ctx, target, postID)
	} else {
		metrics.Reactions.WithLabelValues(string(target.Kind), string(typ), "duplicate").Inc()
	}

	result.ReactionCounts, err = l.Counts(ctx, target)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Unreact removes the actor's reaction on target and reverses its rating delta.
func (l *ReactionLedger) Unreact(ctx context.Context, actorID uint, target Target) (*ReactionResult, error) {
	if !target.Kind.Valid() {
		return nil, validation("unknown target kind %q", target.Kind)
	}

	var removed models.ReactionType
	var postID uint
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authorID, pid, err := loadTarget(tx, target)
		if err != nil {
			return err
		}
		postID = pid

		existing, err := findReaction(tx, actorID, target)
		if err != nil {
			return err
		}

		res := tx.Delete(&models.Reaction{}, existing.ID)
		if res.Error != nil {
			return res.Error
		}
		// Lost a race with another unreact; that one reversed the rating.
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: reaction", ErrNotFound)
		}

		removed = existing.Type
		return AdjustRating(tx, authorID, -existing.Type.Value(), reactionRemovedAction(target.Kind, existing.Type))
	})
	if err != nil {
		return nil, err
	}

	metrics.Reactions.WithLabelValues(string(target.Kind), string(removed), "removed").Inc()
	l.invalidate(ctx, target, postID)

	result := &ReactionResult{Removed: true}
	result.ReactionCounts, err = l.Counts(ctx, target)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Status reports the actor's current reaction on target, if any, with the target's counts.
func (l *ReactionLedger) Status(ctx context.Context, actorID uint, target Target) (*ReactionResult, error) {
	if !target.Kind.Valid() {
		return nil, validation("unknown target kind %q", target.Kind)
	}
	db := l.db.WithContext(ctx)
	if _, _, err := loadTarget(db, target); err != nil {
		return nil, err
	}

	result := &ReactionResult{}
	if actorID != 0 {
		var reactions []models.Reaction
		if err := db.Where("user_id = ? AND target_kind = ? AND target_id = ?", actorID, target.Kind, target.ID).
			Limit(1).Find(&reactions).Error; err != nil {
			return nil, err
		}
		if len(reactions) > 0 {
			result.Type = reactions[0].Type
		}
	}

	counts, err := l.Counts(ctx, target)
	if err != nil {
		return nil, err
	}
	result.ReactionCounts = counts
	return result, nil
}

func (l *ReactionLedger) Counts(ctx context.Context, target Target) (ReactionCounts, error) {
	counts, err := l.CountsFor(ctx, target.Kind, []uint{target.ID})
	if err != nil {
		return ReactionCounts{}, err
	}
	return counts[target.ID], nil
}

// CountsFor batches like/dislike counts for many targets of one kind.
func (l *ReactionLedger) CountsFor(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]ReactionCounts, error) {
	return reactionCounts(l.db.WithContext(ctx), kind, ids)
}

func reactionCounts(db *gorm.DB, kind models.TargetKind, ids []uint) (map[uint]ReactionCounts, error) {
	out := make(map[uint]ReactionCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	type countRow struct {
		TargetID uint
		Type     models.ReactionType
		Count    int64
	}
	var rows []countRow
	err := db.Model(&models.Reaction{}).
		Select("target_id, type, COUNT(*) AS count").
		Where("target_kind = ? AND target_id IN ?", kind, lo.Uniq(ids)).
		Group("target_id, type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		c := out[r.TargetID]
		if r.Type == models.ReactionLike {
			c.Likes = r.Count
		} else {
			c.Dislikes = r.Count
		}
		out[r.TargetID] = c
	}
	return out, nil
}

func (l *ReactionLedger) invalidate(ctx context.Context, target Target, postID uint) {
	if target.Kind == models.TargetComment {
		l.trees.Invalidate(ctx, postID)
	}
}

// loadTarget returns the author of the target and the post it belongs to.
func loadTarget(tx *gorm.DB, target Target) (authorID uint, postID uint, err error) {
	switch target.Kind {
	case models.TargetPost:
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, target.ID).Error; err != nil {
			return 0, 0, notFound(err, "post")
		}
		return post.UserID, post.ID, nil
	case models.TargetComment:
		var comment models.Comment
		if err := tx.Select("id", "user_id", "post_id").First(&comment, target.ID).Error; err != nil {
			return 0, 0, notFound(err, "comment")
		}
		return comment.UserID, comment.PostID, nil
	}
	return 0, 0, validation("unknown target kind %q", target.Kind)
}

func findReaction(tx *gorm.DB, actorID uint, target Target) (*models.Reaction, error) {
	var reaction models.Reaction
	err := tx.Where("user_id = ? AND target_kind = ? AND target_id = ?", actorID, target.Kind, target.ID).
		First(&reaction).Error
	if err != nil {
		return nil, notFound(err, "reaction")
	}
	return &reaction, nil
}
