package handlers

import (
	"net/http"

	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(svc *services.Services) *CommentHandler {
	return &CommentHandler{comments: svc.Comments}
}

type commentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

// List - GET /api/posts/:id/comments (flat)
func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	comments, err := h.comments.ListByPost(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Tree - GET /api/posts/:id/comments/tree, ?nested=1 keeps full depth
func (h *CommentHandler) Tree(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	nested := c.Query("nested") == "1" || c.Query("nested") == "true"

	tree, err := h.comments.Tree(c.Request.Context(), postID, nested)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": tree, "nested": nested})
}

// Create - POST /api/posts/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), mustUser(c), postID, req.ParentCommentID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Reply - POST /api/comments/:id/reply
func (h *CommentHandler) Reply(c *gin.Context) {
	parentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := h.comments.Reply(c.Request.Context(), mustUser(c), parentID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Update - PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), mustUser(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete - DELETE /api/comments/:id, removes the reply subtree too
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), mustUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
