package services

import (
	"context"
	"time"

	"forumhub/internal/cache"
	"forumhub/internal/models"

	"gorm.io/gorm"
)

type Options struct {
	JWTSecret      []byte
	JWTTTL         time.Duration
	CacheTTL       time.Duration
	UploadDir      string
	UploadMaxBytes int64
}

// Services bundles every service the handlers depend on.
type Services struct {
	Users         *UserService
	Categories    *CategoryService
	Posts         *PostService
	Comments      *CommentService
	Reactions     *ReactionLedger
	Ratings       *RatingService
	Favorites     *FavoriteService
	Notifications *NotificationService
	Uploads       *UploadService
	Stats         *StatsService
}

func New(db *gorm.DB, c cache.Cache, opts Options) *Services {
	trees := NewTreeCache(c, opts.CacheTTL)
	reactions := NewReactionLedger(db, trees)
	posts := NewPostService(db, reactions, trees)
	return &Services{
		Users:         NewUserService(db, opts.JWTSecret, opts.JWTTTL),
		Categories:    NewCategoryService(db),
		Posts:         posts,
		Comments:      NewCommentService(db, reactions, trees),
		Reactions:     reactions,
		Ratings:       NewRatingService(db),
		Favorites:     NewFavoriteService(db, posts),
		Notifications: NewNotificationService(db),
		Uploads:       NewUploadService(opts.UploadDir, opts.UploadMaxBytes),
		Stats:         &StatsService{db: db},
	}
}

type DashboardStats struct {
	Users     int64
	Posts     int64
	Comments  int64
	Reactions int64
	Inactive  int64
	Punished  int64
}

type StatsService struct {
	db *gorm.DB
}

func (s *StatsService) Dashboard(ctx context.Context) (DashboardStats, error) {
	var st DashboardStats
	db := s.db.WithContext(ctx)
	counts := []struct {
		query *gorm.DB
		dst   *int64
	}{
		{db.Model(&models.User{}), &st.Users},
		{db.Model(&models.Post{}), &st.Posts},
		{db.Model(&models.Comment{}), &st.Comments},
		{db.Model(&models.Reaction{}), &st.Reactions},
		{db.Model(&models.Comment{}).Where("status = ?", models.CommentStatusInactive), &st.Inactive},
		{db.Model(&models.User{}).Where("status <> ?", models.UserStatusNormal), &st.Punished},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return st, err
		}
	}
	return st, nil
}
