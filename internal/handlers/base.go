package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"forumhub/internal/middleware"
	"forumhub/internal/models"
	"forumhub/internal/services"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user, ok := middleware.CurrentUser(c); ok {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// RenderError renders the console error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "admin/error.html", gin.H{"Error": message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError maps service errors to a JSON error body. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "route", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// paramID parses a positive numeric path parameter, answering 400 when it is not one.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		badRequest(c, "invalid "+name)
	}
	return id, ok
}

func queryPage(c *gin.Context) int {
	if page := utils.StringToInt(c.Query("page")); page > 0 {
		return page
	}
	return 1
}

// mustUser returns the authenticated user. Routes using it sit behind AuthRequired.
func mustUser(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

// viewerID is 0 for anonymous requests.
func viewerID(c *gin.Context) uint {
	if user, ok := middleware.CurrentUser(c); ok {
		return user.ID
	}
	return 0
}
