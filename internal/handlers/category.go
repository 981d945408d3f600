package handlers

import (
	"net/http"

	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categories *services.CategoryService
	posts      *services.PostService
}

func NewCategoryHandler(svc *services.Services) *CategoryHandler {
	return &CategoryHandler{categories: svc.Categories, posts: svc.Posts}
}

// List - GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// Follow - POST /api/categories/:id/follow
func (h *CategoryHandler) Follow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Follow(c.Request.Context(), mustUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow - DELETE /api/categories/:id/follow
func (h *CategoryHandler) Unfollow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Unfollow(c.Request.Context(), mustUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// MyFollows - GET /api/me/follows
func (h *CategoryHandler) MyFollows(c *gin.Context) {
	follows, err := h.categories.Follows(c.Request.Context(), mustUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"follows": follows})
}

// Feed - GET /api/feed posts from followed categories
func (h *CategoryHandler) Feed(c *gin.Context) {
	page, err := h.posts.Feed(c.Request.Context(), mustUser(c).ID, queryPage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
