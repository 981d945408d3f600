package handlers

import (
	"fmt"
	"net/http"
	"time"

	"forumhub/internal/middleware"
	"forumhub/internal/services"
	"forumhub/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const adminListLimit = 50

// AdminHandler serves the server-rendered moderation console.
type AdminHandler struct {
	svc *services.Services
}

func NewAdminHandler(svc *services.Services) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) render(c *gin.Context, name string, obj gin.H) {
	session := sessions.Default(c)
	if flashes := session.Flashes(); len(flashes) > 0 {
		obj["Flashes"] = flashes
		session.Save()
	}
	Render(c, http.StatusOK, name, obj)
}

// back flashes msg and redirects to the admin list page.
func (h *AdminHandler) back(c *gin.Context, to, flash string) {
	session := sessions.Default(c)
	session.AddFlash(flash)
	session.Save()
	c.Redirect(http.StatusFound, to)
}

func (h *AdminHandler) fail(c *gin.Context, err error) {
	RenderError(c, statusOf(err), err.Error())
}

func (h *AdminHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "admin/login.html", gin.H{"Title": "Sign in"})
}

func (h *AdminHandler) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.svc.Users.CheckCredentials(c.Request.Context(), email, password)
	if err != nil {
		Render(c, statusOf(err), "admin/login.html", gin.H{"Title": "Sign in", "Error": "Invalid email or password"})
		return
	}
	if !user.IsAdmin() {
		Render(c, http.StatusForbidden, "admin/login.html", gin.H{"Title": "Sign in", "Error": "This account is not an administrator"})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.AdminSessionKey, user.ID)
	session.Save()
	c.Redirect(http.StatusFound, "/admin")
}

func (h *AdminHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

// Dashboard - GET /admin
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.svc.Stats.Dashboard(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	recent, err := h.svc.Comments.ListRecent(ctx, 10)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, "admin/dashboard.html", gin.H{
		"Title":    "Dashboard",
		"Stats":    stats,
		"Comments": recent,
	})
}

func (h *AdminHandler) Users(c *gin.Context) {
	query := c.Query("q")
	page := queryPage(c)
	users, total, err := h.svc.Users.List(c.Request.Context(), query, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, "admin/users.html", gin.H{
		"Title": "Users",
		"Users": users,
		"Total": total,
		"Query": query,
		"Page":  page,
	})
}

// PunishUser mutes, bans or restores a user; days 0 means permanent.
func (h *AdminHandler) PunishUser(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusBadRequest, "invalid user id")
		return
	}
	status := utils.StringToInt(c.PostForm("status"))
	days := utils.StringToInt(c.PostForm("days"))

	user, err := h.svc.Users.Punish(c.Request.Context(), mustUser(c), id, status, time.Duration(days)*24*time.Hour)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, "/admin/users", fmt.Sprintf("Updated status of %s", user.Username))
}

// RecomputeRating - POST /admin/users/:id/recompute
func (h *AdminHandler) RecomputeRating(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusBadRequest, "invalid user id")
		return
	}
	rating, drift, err := h.svc.Ratings.Recompute(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, "/admin/users", fmt.Sprintf("User %d rating is %d (corrected by %+d)", id, rating, drift))
}

func (h *AdminHandler) Posts(c *gin.Context) {
	page, err := h.svc.Posts.List(c.Request.Context(), services.PostQuery{Page: queryPage(c), PerPage: adminListLimit})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, "admin/posts.html", gin.H{"Title": "Posts", "Posts": page})
}

// DeletePost removes a post; its author gets a system notification.
func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusBadRequest, "invalid post id")
		return
	}
	if err := h.svc.Posts.Delete(c.Request.Context(), mustUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, "/admin/posts", fmt.Sprintf("Post %d deleted", id))
}

func (h *AdminHandler) Comments(c *gin.Context) {
	comments, err := h.svc.Comments.ListRecent(c.Request.Context(), adminListLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, "admin/comments.html", gin.H{"Title": "Comments", "Comments": comments})
}

// SetCommentStatus activates or deactivates a comment.
func (h *AdminHandler) SetCommentStatus(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusBadRequest, "invalid comment id")
		return
	}
	comment, err := h.svc.Comments.SetStatus(c.Request.Context(), mustUser(c), id, c.PostForm("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, "/admin/comments", fmt.Sprintf("Comment %d is now %s", comment.ID, comment.Status))
}

func (h *AdminHandler) DeleteComment(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusBadRequest, "invalid comment id")
		return
	}
	if err := h.svc.Comments.Delete(c.Request.Context(), mustUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, "/admin/comments", fmt.Sprintf("Comment %d and its replies deleted", id))
}

func (h *AdminHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, "admin/categories.html", gin.H{"Title": "Categories", "Categories": categories})
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	category, err := h.svc.Categories.Create(c.Request.Context(), mustUser(c), c.PostForm("name"), c.PostForm("description"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.back(c, "/admin/categories", "Created category "+category.Name)
}
