package db

import (
	"errors"
	"fmt"
	"log/slog"

	"forumhub/internal/models"
	"forumhub/internal/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init connects to PostgreSQL, migrates the schema and seeds categories.
func Init(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	slog.Info("Database migration completed")

	if err := SeedCategories(conn); err != nil {
		return nil, err
	}

	DB = conn
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.CategoryFollow{},
		&models.Post{},
		&models.Comment{},
		&models.Reaction{},
		&models.RatingLog{},
		&models.Favorite{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func SeedCategories(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		slog.Debug("Categories already seeded, skipping")
		return nil
	}

	categories := []models.Category{
		{Name: "General", Description: "Anything that does not fit elsewhere"},
		{Name: "Tech", Description: "Programming, hardware and the web"},
		{Name: "Showcase", Description: "Share what you built"},
		{Name: "Off-topic", Description: "Random chatter"},
	}
	if err := conn.Create(&categories).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	slog.Info("Initial categories created", "count", len(categories))
	return nil
}

// EnsureAdmin creates the bootstrap admin account or promotes an existing one.
func EnsureAdmin(conn *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var user models.User
	err := conn.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role == models.RoleAdmin {
			return nil
		}
		return conn.Model(&user).Update("role", models.RoleAdmin).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{
		Username: "admin",
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	slog.Info("Admin account created", "email", email)
	return nil
}
