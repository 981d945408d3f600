package models

import (
	"time"
)

const (
	CommentStatusActive   = "active"
	CommentStatusInactive = "inactive"
)

type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"not null;index" json:"post_id"`
	Post            Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID          uint      `gorm:"not null;index" json:"author_id"`
	User            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	ParentCommentID *uint     `gorm:"index" json:"parent_comment_id"` // nil for root comments
	Parent          *Comment  `gorm:"foreignKey:ParentCommentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	Status          string    `gorm:"size:16;default:'active';not null" json:"status"`
	PublishDate     time.Time `gorm:"autoCreateTime;index" json:"publish_date"`
}

func (c *Comment) Active() bool {
	return c.Status != CommentStatusInactive
}
