package handlers

import (
	"html/template"
	"net/http"

	"forumhub/internal/models"
	"forumhub/internal/services"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const excerptLength = 180

type PostHandler struct {
	posts     *services.PostService
	reactions *services.ReactionLedger
}

func NewPostHandler(svc *services.Services) *PostHandler {
	return &PostHandler{posts: svc.Posts, reactions: svc.Reactions}
}

type postItem struct {
	models.Post
	Excerpt string `json:"excerpt"`
}

type postDetail struct {
	*models.Post
	ContentHTML template.HTML       `json:"content_html"`
	MyReaction  models.ReactionType `json:"my_reaction,omitempty"`
}

// List - GET /api/posts?category=&page=&sort=new|hot
func (h *PostHandler) List(c *gin.Context) {
	q := services.PostQuery{
		Page: queryPage(c),
		Sort: c.DefaultQuery("sort", services.SortNew),
	}
	if q.Sort != services.SortNew && q.Sort != services.SortHot {
		badRequest(c, "sort must be new or hot")
		return
	}
	if raw := c.Query("category"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			badRequest(c, "invalid category")
			return
		}
		q.CategoryID = id
	}

	page, err := h.posts.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts": lo.Map(page.Posts, func(p models.Post, _ int) postItem {
			return postItem{Post: p, Excerpt: utils.Excerpt(p.Content, excerptLength)}
		}),
		"page":        page.Page,
		"total_pages": page.TotalPages,
		"total":       page.Total,
	})
}

// Detail - GET /api/posts/:id, counts a view
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	post, err := h.posts.Get(ctx, id, true)
	if err != nil {
		respondError(c, err)
		return
	}

	detail := postDetail{Post: post, ContentHTML: utils.RenderMarkdown(post.Content)}
	if viewer := viewerID(c); viewer != 0 {
		status, err := h.reactions.Status(ctx, viewer, services.PostTarget(id))
		if err != nil {
			respondError(c, err)
			return
		}
		detail.MyReaction = status.Type
	}
	c.JSON(http.StatusOK, detail)
}

// Create - POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	post, err := h.posts.Create(c.Request.Context(), mustUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Update - PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	post, err := h.posts.Update(c.Request.Context(), mustUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete - DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), mustUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
