package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"yatube/admin"
	"yatube/cache"
	"yatube/metrics"
	"yatube/services"
	"yatube/utils"
)

// Deps is everything the router needs. Cache and Metrics may be nil.
type Deps struct {
	Content *services.ContentService
	Follows *services.FollowService
	Users   *services.UserService
	Admin   *admin.Service
	Tokens  *utils.TokenManager

	Cache    cache.PageCache
	IndexTTL time.Duration
	Metrics  *metrics.Metrics

	MediaRoot   string
	CORSOrigins []string
	Log         *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	h := New(d)

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery(), requestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(h.Authenticate())

	if d.MediaRoot != "" {
		r.Static("/media", d.MediaRoot)
	}
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/", h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:id/", h.PostDetail)

	auth := r.Group("/", LoginRequired())
	{
		auth.GET("/create/", h.CreatePostForm)
		auth.POST("/create/", h.CreatePost)
		auth.GET("/posts/:id/edit/", h.EditPostForm)
		auth.POST("/posts/:id/edit/", h.EditPost)
		auth.POST("/posts/:id/comment/", h.AddComment)
		auth.GET("/follow/", h.Feed)
		auth.GET("/follow/recommend/", h.Recommend)
		auth.GET("/profile/:username/follow/", h.Follow)
		auth.GET("/profile/:username/unfollow/", h.Unfollow)
	}

	users := r.Group("/auth")
	{
		users.GET("/signup/", h.SignupForm)
		users.POST("/signup/", h.Signup)
		users.GET("/login/", h.LoginForm)
		users.POST("/login/", h.Login)
		users.GET("/logout/", h.Logout)
	}

	staff := r.Group("/admin", StaffRequired())
	{
		staff.GET("/", h.AdminIndex)
		staff.GET("/audit/", h.AdminAudit)
		staff.GET("/:entity/", h.AdminList)
		staff.POST("/posts/:id/group/", h.AdminSetPostGroup)
		staff.POST("/posts/:id/delete/", h.AdminDeletePost)
		staff.POST("/groups/", h.AdminCreateGroup)
		staff.POST("/groups/:id/", h.AdminUpdateGroup)
		staff.POST("/groups/:id/delete/", h.AdminDeleteGroup)
	}

	r.NoRoute(h.notFound)
	return r
}

// requestLogger writes one structured line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
