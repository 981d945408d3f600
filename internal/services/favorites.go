package services

import (
	"context"

	"forumhub/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteService struct {
	db    *gorm.DB
	posts *PostService
}

func NewFavoriteService(db *gorm.DB, posts *PostService) *FavoriteService {
	return &FavoriteService{db: db, posts: posts}
}

// Toggle flips the favorite and returns the new state with the post's favorite count.
func (s *FavoriteService) Toggle(ctx context.Context, userID, postID uint) (favorited bool, count int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return notFound(err, "post")
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Favorite{UserID: userID, PostID: postID}).Error; err != nil {
				return err
			}
			favorited = true
		}
		return tx.Model(&models.Favorite{}).Where("post_id = ?", postID).Count(&count).Error
	})
	return favorited, count, err
}

func (s *FavoriteService) List(ctx context.Context, userID uint, page int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	var favorites []models.Favorite
	if err := db.Preload("Post.User").Preload("Post.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(defaultPerPage).
		Offset((page - 1) * defaultPerPage).
		Find(&favorites).Error; err != nil {
		return nil, err
	}

	posts := lo.Map(favorites, func(f models.Favorite, _ int) models.Post { return f.Post })
	if err := s.posts.fillCounts(ctx, posts); err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Page: page, TotalPages: totalPages(total, defaultPerPage), Total: total}, nil
}

func favoriteCounts(db *gorm.DB, postIDs []uint) (map[uint]int, error) {
	if len(postIDs) == 0 {
		return map[uint]int{}, nil
	}
	type row struct {
		PostID uint
		Count  int
	}
	var rows []row
	if err := db.Model(&models.Favorite{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return lo.SliceToMap(rows, func(r row) (uint, int) { return r.PostID, r.Count }), nil
}
