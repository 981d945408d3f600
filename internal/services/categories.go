package services

import (
	"context"
	"strings"

	"forumhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

func (s *CategoryService) Create(ctx context.Context, actor *models.User, name, description string) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, fmtForbidden("admin only")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validation("category name cannot be empty")
	}

	db := s.db.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.Category{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, conflict("category %q already exists", name)
	}

	category := models.Category{Name: name, Description: strings.TrimSpace(description)}
	if err := db.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Follow is idempotent.
func (s *CategoryService) Follow(ctx context.Context, userID, categoryID uint) error {
	db := s.db.WithContext(ctx)
	var category models.Category
	if err := db.Select("id").First(&category, categoryID).Error; err != nil {
		return notFound(err, "category")
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CategoryFollow{UserID: userID, CategoryID: categoryID}).Error
}

func (s *CategoryService) Unfollow(ctx context.Context, userID, categoryID uint) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Delete(&models.CategoryFollow{}).Error
}

func (s *CategoryService) Follows(ctx context.Context, userID uint) ([]models.CategoryFollow, error) {
	var follows []models.CategoryFollow
	err := s.db.WithContext(ctx).Preload("Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&follows).Error
	return follows, err
}
