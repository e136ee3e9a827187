package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dewelsk/vk-testing-backend/internal/config"
	"github.com/dewelsk/vk-testing-backend/internal/handler"
	"github.com/dewelsk/vk-testing-backend/internal/middleware"
	"github.com/dewelsk/vk-testing-backend/internal/response"
	"github.com/dewelsk/vk-testing-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth            *handler.AuthHandler
	CandidatePortal *handler.CandidatePortalHandler
	Monitor         *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/candidate/login", handlers.Auth.CandidateLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)
	}

	// ─── 2. Candidate Group (JWT) ──────────────────────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(middleware.RequireCandidateJWT(authService))
	{
		candidateAPI.GET("/dashboard", handlers.CandidatePortal.GetDashboard)
		candidateAPI.POST("/sessions/start", handlers.CandidatePortal.StartSession)
		candidateAPI.GET("/sessions/:session_id", handlers.CandidatePortal.GetSession)
		candidateAPI.POST("/sessions/:session_id/save", handlers.CandidatePortal.SaveAnswers)
		candidateAPI.POST("/sessions/:session_id/submit", handlers.CandidatePortal.SubmitSession)
		candidateAPI.GET("/sessions/:session_id/result", handlers.CandidatePortal.GetResult)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/procedures/:procedure_id/monitoring", handlers.Monitor.GetMonitoring)
	}

	return router
}
