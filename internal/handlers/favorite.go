package handlers

import (
	"net/http"

	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	favorites *services.FavoriteService
}

func NewFavoriteHandler(favorites *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// Toggle - POST /api/posts/:id/favorite
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	favorited, count, err := h.favorites.Toggle(c.Request.Context(), mustUser(c).ID, postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited, "count": count})
}

// List - GET /api/me/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	page, err := h.favorites.List(c.Request.Context(), mustUser(c).ID, queryPage(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
