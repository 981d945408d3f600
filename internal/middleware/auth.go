package middleware

import (
	"net/http"
	"strings"
	"time"

	"forumhub/internal/models"
	"forumhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// AdminSessionKey holds the admin console user id in the cookie session.
const AdminSessionKey = "admin_user_id"

// CurrentUser returns the user LoadUser or LoadAdmin attached, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// LoadUser resolves the bearer token, when present, and sets the user on the context.
// Invalid tokens are treated as anonymous; AuthRequired decides what to do.
func LoadUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if ok && token != "" {
			if user, err := users.Authenticate(c.Request.Context(), strings.TrimSpace(token)); err == nil {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// AuthRequired ensures an API user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// WriteAllowed rejects muted or banned users on write routes.
func WriteAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if ok && user.Punished(time.Now()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "your account is restricted"})
			return
		}
		c.Next()
	}
}

// LoadAdmin retrieves the console user from the session.
func LoadAdmin(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if id, ok := session.Get(AdminSessionKey).(uint); ok {
			if user, err := users.Get(c.Request.Context(), id); err == nil && user.IsAdmin() {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// AdminRequired sends anyone without an admin session to the console login page.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
