package models

import (
	"time"
)

type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

func (t ReactionType) Valid() bool {
	return t == ReactionLike || t == ReactionDislike
}

// Value is the rating delta the reaction applies to the target's author.
func (t ReactionType) Value() int {
	if t == ReactionDislike {
		return -1
	}
	return 1
}

// Opposite returns the mutually exclusive reaction type.
func (t ReactionType) Opposite() ReactionType {
	if t == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

func (k TargetKind) Valid() bool {
	return k == TargetPost || k == TargetComment
}

// Reaction is one like or dislike from a user on exactly one post or comment.
// (user_id, target_kind, target_id) is unique, so a user holds at most one
// reaction per target. PostID/CommentID mirror TargetID for the FK cascades.
type Reaction struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;uniqueIndex:idx_reaction_target,priority:1" json:"author_id"`
	User        User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TargetKind  TargetKind   `gorm:"size:16;not null;uniqueIndex:idx_reaction_target,priority:2" json:"target_kind"`
	TargetID    uint         `gorm:"not null;uniqueIndex:idx_reaction_target,priority:3" json:"target_id"`
	PostID      *uint        `gorm:"index" json:"post_id,omitempty"`
	Post        *Post        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CommentID   *uint        `gorm:"index" json:"comment_id,omitempty"`
	Comment     *Comment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Type        ReactionType `gorm:"size:16;not null" json:"type"`
	PublishDate time.Time    `gorm:"autoCreateTime" json:"publish_date"`
}
