package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"forumhub/internal/models"
	"forumhub/internal/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = 72 // bcrypt input limit
	maxUsernameLength = 32
	maxBioLength      = 200
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var validate = validator.New()

type ProfileInput struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
	Bio      *string `json:"bio"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type UserService struct {
	db        *gorm.DB
	jwtSecret []byte
	jwtTTL    time.Duration
	now       func() time.Time
}

func NewUserService(db *gorm.DB, jwtSecret []byte, jwtTTL time.Duration) *UserService {
	return &UserService{db: db, jwtSecret: jwtSecret, jwtTTL: jwtTTL, now: time.Now}
}

func validateUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validation("username cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxUsernameLength {
		return "", validation("username is too long")
	}
	return name, nil
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return nil, validation("invalid email address")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return nil, validation("password must be at least %d characters", minPasswordLength)
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, validation("password must be at most %d bytes", maxPasswordBytes)
	}

	db := s.db.WithContext(ctx)
	var taken int64
	if err := db.Model(&models.User{}).Where("email = ? OR username = ?", email, username).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, conflict("username or email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID)
	return s.issue(&user)
}

// Login accepts either the email or the username as identifier.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(identifier), identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, unauthorized("invalid credentials")
	}
	if user.Status == models.UserStatusBanned && user.Punished(s.now()) {
		return nil, fmtForbidden("account is banned")
	}
	return s.issue(&user)
}

func (s *UserService) issue(user *models.User) (*Session, error) {
	token, err := utils.IssueJWT(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: s.now().Add(s.jwtTTL), User: user}, nil
}

// Authenticate resolves a bearer token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, _, err := utils.DecodeJWT(token, s.jwtSecret)
	if err != nil {
		return nil, unauthorized(err.Error())
	}
	user, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, unauthorized(err.Error())
	}
	return user, err
}

// CheckCredentials is used by the admin console login form.
func (s *UserService) CheckCredentials(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil || !utils.CheckPasswordHash(password, user.Password) {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, unauthorized("invalid credentials")
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, in ProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.Username != nil {
		name, err := validateUsername(*in.Username)
		if err != nil {
			return nil, err
		}
		if name != actor.Username {
			var taken int64
			if err := s.db.WithContext(ctx).Model(&models.User{}).
				Where("username = ? AND id <> ?", name, actor.ID).
				Count(&taken).Error; err != nil {
				return nil, err
			}
			if taken > 0 {
				return nil, conflict("username %q is taken", name)
			}
		}
		updates["username"] = name
	}
	if in.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*in.Avatar)
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return nil, validation("bio is too long")
		}
		updates["bio"] = bio
	}

	if len(updates) > 0 {
		updates["updated_at"] = s.now()
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", actor.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, actor.ID)
}

// Punish sets a user's status. A zero duration means permanent; status normal lifts the punishment.
func (s *UserService) Punish(ctx context.Context, actor *models.User, userID uint, status int, duration time.Duration) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, fmtForbidden("admin only")
	}
	if status < models.UserStatusNormal || status > models.UserStatusBanned {
		return nil, validation("invalid status %d", status)
	}
	target, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() && status != models.UserStatusNormal {
		return nil, fmtForbidden("admins cannot be punished")
	}

	var expires *time.Time
	if status != models.UserStatusNormal && duration > 0 {
		t := s.now().Add(duration)
		expires = &t
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"status":         status,
		"punish_expires": expires,
	}).Error; err != nil {
		return nil, err
	}
	slog.Info("user status changed", "user_id", userID, "status", status, "by", actor.ID)
	return s.Get(ctx, userID)
}

func (s *UserService) List(ctx context.Context, query string, page int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	db := s.db.WithContext(ctx).Model(&models.User{})
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + query + "%"
		db = db.Where("username LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := db.Order("id DESC").Limit(defaultPerPage).Offset((page - 1) * defaultPerPage).Find(&users).Error
	return users, total, err
}
