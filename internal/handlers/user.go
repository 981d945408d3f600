package handlers

import (
	"net/http"

	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users    *services.UserService
	ratings  *services.RatingService
	posts    *services.PostService
	comments *services.CommentService
}

func NewUserHandler(svc *services.Services) *UserHandler {
	return &UserHandler{users: svc.Users, ratings: svc.Ratings, posts: svc.Posts, comments: svc.Comments}
}

// Me - GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, mustUser(c))
}

// UpdateMe - PATCH /api/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), mustUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Profile - GET /api/users/:id?tab=posts|comments
func (h *UserHandler) Profile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	// email is visible to its owner only
	if viewerID(c) != user.ID {
		user.Email = ""
	}

	tab := c.DefaultQuery("tab", "posts")
	resp := gin.H{"user": user}
	switch tab {
	case "posts":
		page, err := h.posts.List(ctx, services.PostQuery{UserID: user.ID, Page: queryPage(c)})
		if err != nil {
			respondError(c, err)
			return
		}
		resp["posts"] = page
	case "comments":
		comments, err := h.comments.ListByUser(ctx, user.ID, 0)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["comments"] = comments
	default:
		badRequest(c, "unknown tab "+tab)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RatingLogs - GET /api/users/:id/rating-logs, own history only
func (h *UserHandler) RatingLogs(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user := mustUser(c)
	if user.ID != id && !user.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "rating history is private"})
		return
	}

	logs, err := h.ratings.Logs(c.Request.Context(), id, 100)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rating_logs": logs})
}
