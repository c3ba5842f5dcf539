package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/diemthi/thpt-score-backend/internal/config"
	"github.com/diemthi/thpt-score-backend/internal/handler"
	"github.com/diemthi/thpt-score-backend/internal/middleware"
	"github.com/diemthi/thpt-score-backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Student *handler.StudentHandler
	Subject *handler.SubjectHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.System.Health)

	// The whole read API is public; rate-limit it per IP.
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)

	// ─── Students ──────────────────────────────────────────────────────
	// Gin's tree cannot mix the static /students/top/... routes with the
	// /students/:sbd/scores parameter at the same segment, so both shapes
	// share one two-parameter route and dispatch on the first segment.
	students := router.Group("/students")
	students.Use(limiter.Middleware())
	{
		students.GET("/:first/:second", func(c *gin.Context) {
			first := c.Param("first")
			second := c.Param("second")

			switch {
			case first == "top" && strings.HasPrefix(second, "group-"):
				handlers.Student.TopGroup(strings.TrimPrefix(second, "group-"))(c)
			case second == "scores":
				c.Params = append(c.Params, gin.Param{Key: "sbd", Value: first})
				handlers.Student.GetScores(c)
			default:
				response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			}
		})
	}

	// ─── Subjects ──────────────────────────────────────────────────────
	// The subject list and statistics change only on re-ingestion; let
	// HTTP caches hold them for five minutes on top of the Redis layer.
	subjects := router.Group("/subjects")
	subjects.Use(limiter.Middleware(), middleware.CacheControl(300))
	{
		subjects.GET("", handlers.Subject.GetAll)
		subjects.GET("/statistics/score-levels", handlers.Subject.GetScoreLevelStatistics)
		subjects.GET("/statistics/score-distribution", handlers.Subject.GetScoreDistribution)
	}

	return router
}
