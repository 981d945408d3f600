package router

import (
	"net/http"
	"time"

	"forumhub/internal/handlers"
	"forumhub/internal/middleware"
	"forumhub/internal/models"
	"forumhub/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	SessionSecret string
	CORSOrigins   []string
	TemplatesDir  string
}

// New builds the engine with the global middleware and every route.
func New(svc *services.Services, opts Options) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	render, err := handlers.LoadTemplates(opts.TemplatesDir)
	if err != nil {
		return nil, err
	}
	r.HTMLRender = render

	RegisterRoutes(r, svc, opts)
	return r, nil
}

func RegisterRoutes(r *gin.Engine, svc *services.Services, opts Options) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Users)
	userHandler := handlers.NewUserHandler(svc)
	categoryHandler := handlers.NewCategoryHandler(svc)
	postHandler := handlers.NewPostHandler(svc)
	commentHandler := handlers.NewCommentHandler(svc)
	postReactions := handlers.NewReactionHandler(svc.Reactions, models.TargetPost)
	commentReactions := handlers.NewReactionHandler(svc.Reactions, models.TargetComment)
	favoriteHandler := handlers.NewFavoriteHandler(svc.Favorites)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)
	uploadHandler := handlers.NewUploadHandler(svc.Uploads)
	adminHandler := handlers.NewAdminHandler(svc)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/uploads/:name", uploadHandler.Serve)

	// JSON API
	api := r.Group("/api")
	if len(opts.CORSOrigins) > 0 {
		api.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	api.Use(middleware.LoadUser(svc.Users))
	{
		// Public routes
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		api.GET("/categories", categoryHandler.List)
		api.GET("/posts", postHandler.List)
		api.GET("/posts/:id", postHandler.Detail)
		api.GET("/posts/:id/comments", commentHandler.List)
		api.GET("/posts/:id/comments/tree", commentHandler.Tree)
		api.GET("/posts/:id/reaction", postReactions.Status)
		api.GET("/comments/:id/reaction", commentReactions.Status)
		api.GET("/users/:id", userHandler.Profile)
	}

	// Authenticated routes
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)
		authorized.GET("/me/follows", categoryHandler.MyFollows)
		authorized.GET("/me/favorites", favoriteHandler.List)
		authorized.GET("/me/notifications", notificationHandler.List)
		authorized.POST("/me/notifications/read-all", notificationHandler.ReadAll)
		authorized.POST("/me/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/me/notifications/:id", notificationHandler.Delete)
		authorized.GET("/feed", categoryHandler.Feed)
		authorized.GET("/users/:id/rating-logs", userHandler.RatingLogs)

		// Muted or banned users cannot write, but may still unreact and delete their own content.
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.DELETE("/posts/:id/reaction", postReactions.Unreact)
		authorized.DELETE("/comments/:id/reaction", commentReactions.Unreact)
		authorized.POST("/categories/:id/follow", categoryHandler.Follow)
		authorized.DELETE("/categories/:id/follow", categoryHandler.Unfollow)
		authorized.POST("/posts/:id/favorite", favoriteHandler.Toggle)
	}

	writes := authorized.Group("")
	writes.Use(middleware.WriteAllowed())
	{
		writes.PATCH("/me", userHandler.UpdateMe)
		writes.POST("/posts", postHandler.Create)
		writes.PUT("/posts/:id", postHandler.Update)
		writes.POST("/posts/:id/comments", commentHandler.Create)
		writes.POST("/comments/:id/reply", commentHandler.Reply)
		writes.PUT("/comments/:id", commentHandler.Update)
		writes.POST("/posts/:id/like", postReactions.Like)
		writes.POST("/posts/:id/dislike", postReactions.Dislike)
		writes.POST("/comments/:id/like", commentReactions.Like)
		writes.POST("/comments/:id/dislike", commentReactions.Dislike)
		writes.POST("/uploads", uploadHandler.Upload)
	}

	// Admin console
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/admin", MaxAge: 86400 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	console := r.Group("/admin")
	console.Use(sessions.Sessions("forumhub_admin", store), middleware.LoadAdmin(svc.Users))
	{
		console.GET("/login", adminHandler.ShowLogin)
		console.POST("/login", adminHandler.Login)
		console.POST("/logout", adminHandler.Logout)
	}

	admin := console.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("", adminHandler.Dashboard)
		admin.GET("/users", adminHandler.Users)
		admin.POST("/users/:id/punish", adminHandler.PunishUser)
		admin.POST("/users/:id/recompute", adminHandler.RecomputeRating)
		admin.GET("/posts", adminHandler.Posts)
		admin.POST("/posts/:id/delete", adminHandler.DeletePost)
		admin.GET("/comments", adminHandler.Comments)
		admin.POST("/comments/:id/status", adminHandler.SetCommentStatus)
		admin.POST("/comments/:id/delete", adminHandler.DeleteComment)
		admin.GET("/categories", adminHandler.Categories)
		admin.POST("/categories", adminHandler.CreateCategory)
	}
}
