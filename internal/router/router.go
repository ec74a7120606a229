package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/classpoints-backend/internal/config"
	"github.com/stemsi/classpoints-backend/internal/handler"
	"github.com/stemsi/classpoints-backend/internal/middleware"
	"github.com/stemsi/classpoints-backend/internal/response"
)

// catalogMaxAge is how long browsers may cache the fixed catalogs.
const catalogMaxAge = 24 * 60 * 60

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog   *handler.CatalogHandler
	Class     *handler.ClassHandler
	Session   *handler.SessionHandler
	Student   *handler.StudentHandler
	Picker    *handler.PickerHandler
	Transfer  *handler.TransferHandler
	Fireworks *handler.FireworksHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// importLimiter throttles the roster-replacing upload routes.
func SetupRouter(
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
	importLimiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so a classroom laptop works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log can carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper:   middleware.SkipBinaryDownloads,
	}))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Catalogs (cacheable) ───────────────────────────────────────
	catalog := router.Group("/api/v1")
	catalog.Use(middleware.CacheControl(catalogMaxAge))
	{
		catalog.GET("/behaviors", handlers.Catalog.ListBehaviors)
		catalog.GET("/avatars", handlers.Catalog.ListAvatars)
	}

	// ─── 2. Classroom state ────────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())
	{
		api.GET("/classes", handlers.Class.ListClasses)
		api.POST("/classes", handlers.Class.CreateClass)
		api.POST("/classes/import-xlsx", importLimiter.Middleware(), handlers.Class.ImportClassXLSX)
		api.GET("/classes/:id", handlers.Class.GetClass)
		api.DELETE("/classes/:id", handlers.Class.DeleteClass)

		api.GET("/session", handlers.Session.GetSession)
		api.PUT("/session/class", handlers.Session.SelectClass)
		api.PUT("/session/sort", handlers.Session.SetSort)
		api.PUT("/session/active-student", handlers.Session.OpenStudent)
		api.DELETE("/session/active-student", handlers.Session.CloseStudent)
		api.DELETE("/session/feedback", handlers.Session.DismissFeedback)

		api.POST("/students/:student_id/behaviors", handlers.Student.ApplyBehavior)
		api.POST("/students/:student_id/manual", handlers.Student.ApplyManualPoints)
		api.PUT("/students/:student_id/avatar", handlers.Student.SetAvatar)
		api.GET("/students/:student_id/history", handlers.Student.GetHistory)

		api.POST("/picker/roll", handlers.Picker.Roll)
		api.GET("/picker", handlers.Picker.Status)

		api.GET("/export", handlers.Transfer.Export)
		api.GET("/export.xlsx", handlers.Transfer.ExportXLSX)
		api.POST("/import", importLimiter.Middleware(), handlers.Transfer.Import)

		api.GET("/fireworks/stream", handlers.Fireworks.Stream)

		api.GET("/system", handlers.System.Status)
	}

	// ─── 3. Live stream ────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/stream", handlers.WS.Stream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
