package services

import (
	"path/filepath"
	"testing"
	"time"

	"forumhub/internal/cache"
	"forumhub/internal/db"
	"forumhub/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps the in-memory database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return migrated(t, conn)
}

// newFileTestDB opens a WAL-mode SQLite file with a connection pool, so
// concurrent transactions really run against each other.
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "forum.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { sqlDB.Close() })

	return migrated(t, conn)
}

func migrated(t *testing.T, conn *gorm.DB) *gorm.DB {
	t.Helper()
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.SeedCategories(conn))
	return conn
}

func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	c, err := cache.NewLRU(100)
	require.NoError(t, err)
	return newTestServicesWithCache(t, c)
}

func newTestServicesWithCache(t *testing.T, c cache.Cache) (*Services, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	return newServicesOn(t, conn, c), conn
}

func newServicesOn(t *testing.T, conn *gorm.DB, c cache.Cache) *Services {
	t.Helper()
	return New(conn, c, Options{
		JWTSecret:      []byte("test-secret"),
		JWTTTL:         time.Hour,
		CacheTTL:       time.Minute,
		UploadDir:      t.TempDir(),
		UploadMaxBytes: 1 << 20,
	})
}

func createUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{Username: name, Email: name + "@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, conn.Create(&user).Error)
	return &user
}

func createAdmin(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{Username: name, Email: name + "@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, conn.Create(&user).Error)
	return &user
}

func createPost(t *testing.T, conn *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()
	post := models.Post{UserID: author.ID, CategoryID: 1, Title: title, Content: "body of " + title}
	require.NoError(t, conn.Create(&post).Error)
	return &post
}

func createComment(t *testing.T, conn *gorm.DB, author *models.User, post *models.Post, parent *models.Comment, at time.Time) *models.Comment {
	t.Helper()
	c := models.Comment{
		PostID:      post.ID,
		UserID:      author.ID,
		Content:     "comment",
		Status:      models.CommentStatusActive,
		PublishDate: at,
	}
	if parent != nil {
		c.ParentCommentID = &parent.ID
	}
	require.NoError(t, conn.Create(&c).Error)
	return &c
}

func ratingOf(t *testing.T, conn *gorm.DB, userID uint) int {
	t.Helper()
	var user models.User
	require.NoError(t, conn.Select("rating").First(&user, userID).Error)
	return user.Rating
}
