package router

import (
	"net/http"
	"time"

	"comicnest/internal/config"
	"comicnest/internal/handlers"
	"comicnest/internal/middleware"
	"comicnest/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"gorm.io/gorm"
)

const sessionName = "comicnest_session"

type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Auth     *services.AuthService
	Comments *services.CommentService
	Comics   *services.ComicService
	Users    *services.UserService
}

// New builds the engine with middleware and every route registered.
func New(d Deps) *gin.Engine {
	cfg := d.Config
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg)))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   !cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	if cfg.MetricsEnabled {
		p := ginprometheus.NewPrometheus("gin")
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			// 用路由模板做 label，避免 id 撑爆基数
			if route := c.FullPath(); route != "" {
				return route
			}
			return "unmatched"
		}
		p.Use(r)
	}

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Auth, !d.Config.IsDevelopment())
	commentHandler := handlers.NewCommentHandler(d.Comments)
	comicHandler := handlers.NewComicHandler(d.Comics)
	userHandler := handlers.NewUserHandler(d.Users)
	healthHandler := handlers.NewHealthHandler(d.DB)

	requireAuth := middleware.Authenticate(d.Auth)
	optionalAuth := middleware.OptionalAuth(d.Auth)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/")
	api.Use(middleware.Timeout(d.Config.RequestTimeout))

	// 认证 (Auth)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register) // 注册
		auth.POST("/login", authHandler.Login)       // 登录
		auth.POST("/logout", authHandler.Logout)     // 退出登录
		auth.GET("/me", requireAuth, authHandler.Me) // 当前用户
	}

	// 评论 (Comments)
	comment := api.Group("/comment")
	{
		comment.GET("/:chapterId", commentHandler.List)                         // 章节评论树
		comment.GET("/thread/:commentId", commentHandler.Thread)                // 单条评论子树
		comment.POST("/:chapterId", requireAuth, commentHandler.Create)         // 发表评论
		comment.POST("/reply/:chapterId", requireAuth, commentHandler.Reply)    // 回复评论
		comment.PUT("/like/:commentId", requireAuth, commentHandler.Like)       // 点赞
		comment.PUT("/dislike/:commentId", requireAuth, commentHandler.Dislike) // 点踩
		comment.DELETE("/:commentId", requireAuth, commentHandler.Delete)       // 删除评论及回复
	}

	// 漫画 (Comics)
	comic := api.Group("/comic")
	{
		comic.POST("/view-comic/:slug", optionalAuth, comicHandler.ViewComic)
		comic.POST("/view-chapter/:externalId", comicHandler.ViewChapter)
		comic.PUT("/follow", requireAuth, comicHandler.Follow)
		comic.GET("/top-comics", comicHandler.TopComics)
		comic.GET("/metrics/:slug", optionalAuth, comicHandler.Metrics)
	}

	// 用户 (User)
	user := api.Group("/user")
	user.Use(requireAuth)
	{
		user.GET("/wishlists", userHandler.Wishlists) // 追更列表
		user.GET("/history", userHandler.History)     // 阅读历史
		user.GET("/comments", userHandler.Comments)   // 我的评论 id
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if cfg.ClientURL != "" {
		origins = append(origins, cfg.ClientURL)
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
