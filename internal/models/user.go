package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User status values.
const (
	UserStatusNormal = 0
	UserStatusMuted  = 1
	UserStatusBanned = 2
)

type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password      string     `gorm:"not null" json:"-"` // Hash
	Avatar        string     `json:"avatar"`            // URL, usually from /uploads
	Bio           string     `gorm:"size:200" json:"bio"`
	Rating        int        `gorm:"default:0;not null" json:"rating"` // +1 per like, -1 per dislike received
	Role          string     `gorm:"size:20;default:'user';not null" json:"role"`
	Status        int        `gorm:"default:0" json:"status"` // 0 normal, 1 muted, 2 banned
	PunishExpires *time.Time `json:"punish_expires,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Punished reports whether the user is muted or banned at the given moment.
// An expired punishment counts as lifted.
func (u *User) Punished(now time.Time) bool {
	if u.Status == UserStatusNormal {
		return false
	}
	if u.PunishExpires != nil && now.After(*u.PunishExpires) {
		return false
	}
	return true
}
