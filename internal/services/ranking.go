package services

import (
	"time"

	"forumhub/internal/models"
	"forumhub/internal/utils"
)

func hotScore(p models.Post, now time.Time, favorites int) float64 {
	return utils.HotScore(p.CreatedAt, now, p.Likes, p.Dislikes, favorites, p.CommentCount)
}
