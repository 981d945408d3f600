package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"forumhub/internal/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	defaultPerPage    = 30
	maxPerPage        = 100
	maxPage           = 100000
	hotCandidateLimit = 200
	maxTitleLength    = 200
)

const (
	SortNew = "new"
	SortHot = "hot"
)

type PostInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	CategoryID uint   `json:"category_id"`
}

type PostQuery struct {
	CategoryID  uint
	CategoryIDs []uint // used by the follow feed
	UserID      uint
	Page        int
	PerPage     int
	Sort        string
}

type PostPage struct {
	Posts      []models.Post `json:"posts"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int64         `json:"total"`
}

type PostService struct {
	db        *gorm.DB
	reactions *ReactionLedger
	trees     *TreeCache
	now       func() time.Time
}

func NewPostService(db *gorm.DB, reactions *ReactionLedger, trees *TreeCache) *PostService {
	return &PostService{db: db, reactions: reactions, trees: trees, now: time.Now}
}

func (s *PostService) validate(ctx context.Context, in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return validation("title cannot be empty")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return validation("title is too long")
	}
	if in.CategoryID == 0 {
		return validation("category_id is required")
	}

	var category models.Category
	err := s.db.WithContext(ctx).Select("id").First(&category, in.CategoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return validation("unknown category %d", in.CategoryID)
	}
	return err
}

func (s *PostService) Create(ctx context.Context, actor *models.User, in PostInput) (*models.Post, error) {
	if actor.Punished(s.now()) {
		return nil, fmtForbidden("your account cannot post right now")
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	post := models.Post{
		UserID:     actor.ID,
		CategoryID: in.CategoryID,
		Title:      in.Title,
		Content:    in.Content,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}
	slog.Debug("post created", "post_id", post.ID, "user_id", actor.ID)
	return s.Get(ctx, post.ID, false)
}

// Get loads a post with its author, category and counters. countView bumps the view counter.
func (s *PostService) Get(ctx context.Context, id uint, countView bool) (*models.Post, error) {
	db := s.db.WithContext(ctx)

	var post models.Post
	if err := db.Preload("User").Preload("Category").First(&post, id).Error; err != nil {
		return nil, notFound(err, "post")
	}

	if countView {
		if err := db.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
			return nil, err
		}
		post.Views++
	}

	posts := []models.Post{post}
	if err := s.fillCounts(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostService) Update(ctx context.Context, actor *models.User, id uint, in PostInput) (*models.Post, error) {
	post, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if post.UserID != actor.ID {
		return nil, fmtForbidden("only the author can edit this post")
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       in.Title,
		"content":     in.Content,
		"category_id": in.CategoryID,
		"updated_at":  s.now(),
	}).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id, false)
}

// Delete removes the post with its comments, reactions and favorites,
// reversing the rating every removed reaction had contributed.
func (s *PostService) Delete(ctx context.Context, actor *models.User, id uint) error {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "user_id", "title").First(&post, id).Error; err != nil {
		return notFound(err, "post")
	}
	if post.UserID != actor.ID && !actor.IsAdmin() {
		return fmtForbidden("only the author or an admin can delete this post")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if err := deleteComments(tx, commentIDs); err != nil {
			return err
		}

		var postScore int64
		if err := tx.Model(&models.Reaction{}).
			Select(reactionSumExpr).
			Where("target_kind = ? AND target_id = ?", models.TargetPost, id).
			Scan(&postScore).Error; err != nil {
			return err
		}
		if err := AdjustRating(tx, post.UserID, -int(postScore), ActionContentDeleted); err != nil {
			return err
		}

		if err := tx.Where("target_kind = ? AND target_id = ?", models.TargetPost, id).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return err
		}
		if post.UserID != actor.ID {
			return notifySystem(tx, post.UserID, "Your post \""+post.Title+"\" was removed by a moderator.")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.trees.Invalidate(ctx, id)
	slog.Info("post deleted", "post_id", id, "by", actor.ID)
	return nil
}

func (s *PostService) List(ctx context.Context, q PostQuery) (*PostPage, error) {
	q.Page = min(max(q.Page, 1), maxPage)
	if q.PerPage < 1 || q.PerPage > maxPerPage {
		q.PerPage = defaultPerPage
	}

	scope := func(db *gorm.DB) *gorm.DB {
		if q.CategoryID != 0 {
			db = db.Where("category_id = ?", q.CategoryID)
		}
		if q.CategoryIDs != nil {
			db = db.Where("category_id IN ?", q.CategoryIDs)
		}
		if q.UserID != 0 {
			db = db.Where("user_id = ?", q.UserID)
		}
		return db
	}
	db := s.db.WithContext(ctx)

	if q.CategoryIDs != nil && len(q.CategoryIDs) == 0 {
		return &PostPage{Posts: []models.Post{}, Page: q.Page, TotalPages: 1}, nil
	}

	if q.Sort == SortHot {
		return s.listHot(ctx, db.Scopes(scope), q)
	}

	var total int64
	if err := db.Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := db.Scopes(scope).Preload("User").Preload("Category").
		Order("created_at DESC, id DESC").
		Limit(q.PerPage).
		Offset((q.Page - 1) * q.PerPage).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := s.fillCounts(ctx, posts); err != nil {
		return nil, err
	}

	return &PostPage{Posts: posts, Page: q.Page, TotalPages: totalPages(total, q.PerPage), Total: total}, nil
}

// listHot ranks the most recent candidates by HotScore in memory.
func (s *PostService) listHot(ctx context.Context, db *gorm.DB, q PostQuery) (*PostPage, error) {
	var posts []models.Post
	if err := db.Preload("User").Preload("Category").
		Order("created_at DESC").
		Limit(hotCandidateLimit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := s.fillCounts(ctx, posts); err != nil {
		return nil, err
	}

	favorites, err := favoriteCounts(s.db.WithContext(ctx), lo.Map(posts, func(p models.Post, _ int) uint { return p.ID }))
	if err != nil {
		return nil, err
	}

	now := s.now()
	scores := make(map[uint]float64, len(posts))
	for _, p := range posts {
		scores[p.ID] = hotScore(p, now, favorites[p.ID])
	}
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		switch {
		case scores[a.ID] > scores[b.ID]:
			return -1
		case scores[a.ID] < scores[b.ID]:
			return 1
		}
		return 0
	})

	total := int64(len(posts))
	window := []models.Post{}
	if q.Page-1 < (len(posts)+q.PerPage-1)/q.PerPage {
		start := (q.Page - 1) * q.PerPage
		window = posts[start:min(start+q.PerPage, len(posts))]
	}
	return &PostPage{Posts: window, Page: q.Page, TotalPages: totalPages(total, q.PerPage), Total: total}, nil
}

// Feed lists posts from the categories the user follows.
func (s *PostService) Feed(ctx context.Context, userID uint, page int) (*PostPage, error) {
	var categoryIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.CategoryFollow{}).
		Where("user_id = ?", userID).
		Pluck("category_id", &categoryIDs).Error; err != nil {
		return nil, err
	}
	if categoryIDs == nil {
		categoryIDs = []uint{}
	}
	return s.List(ctx, PostQuery{CategoryIDs: categoryIDs, Page: page})
}

// fillCounts loads comment and reaction counts for a page of posts in batch.
func (s *PostService) fillCounts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	postIDs := lo.Map(posts, func(p models.Post, _ int) uint { return p.ID })

	type countResult struct {
		PostID uint
		Count  int
	}
	var results []countResult
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results).Error; err != nil {
		return err
	}
	commentCounts := lo.SliceToMap(results, func(r countResult) (uint, int) { return r.PostID, r.Count })

	reactions, err := s.reactions.CountsFor(ctx, models.TargetPost, postIDs)
	if err != nil {
		return err
	}

	for i := range posts {
		posts[i].CommentCount = commentCounts[posts[i].ID]
		posts[i].Likes = int(reactions[posts[i].ID].Likes)
		posts[i].Dislikes = int(reactions[posts[i].ID].Dislikes)
	}
	return nil
}

func totalPages(total int64, perPage int) int {
	pages := int(math.Ceil(float64(total) / float64(perPage)))
	if pages == 0 {
		pages = 1
	}
	return pages
}
