package routes

import (
	"time"

	"github.com/buildcrew/fieldreport-api/internal/config"
	domainRepo "github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/internal/presentation/http/handler"
	"github.com/buildcrew/fieldreport-api/internal/presentation/http/middleware"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth   *handler.AuthHandler
	Report *handler.ReportHandler
	Order  *handler.OrderHandler
	Roster *handler.RosterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	Log             *logrus.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		registerAuthRoutes(v1, h)

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-user rate limiter
		rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/refresh", h.Auth.RefreshToken)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile/password", h.Auth.ChangePassword)

	// Report editing sessions
	registerReportRoutes(protected, h, deps)

	// Orders
	registerOrderRoutes(protected, h)

	// Roster
	registerRosterRoutes(protected, h)
}

func registerReportRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	reports := protected.Group("/reports")
	reports.Use(middleware.RequirePermission("manage-reports"))
	{
		reports.POST("/session", h.Report.OpenSession)
		reports.GET("/session", h.Report.GetSession)
		reports.DELETE("/session", h.Report.CloseSession)
		reports.POST("/session/rows/:kind", h.Report.AddRow)
		reports.PATCH("/session/rows/:kind/:index", h.Report.UpdateField)
		reports.DELETE("/session/rows/:kind/:index", h.Report.RemoveRow)
		// Finalizing uses idempotency middleware so a double-submit cannot
		// produce two saves
		reports.POST("/session/finalize", middleware.IdempotencyRequired(middleware.IdempotencyConfig{
			Repo: deps.IdempotencyRepo,
		}), h.Report.Finalize)
	}
}

func registerOrderRoutes(protected *gin.RouterGroup, h *Handlers) {
	orders := protected.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.GET("/:id", h.Order.Get)

		manage := orders.Group("")
		manage.Use(middleware.RequirePermission("manage-orders"))
		{
			manage.POST("", h.Order.Create)
			manage.PUT("/:id/status", h.Order.UpdateStatus)
		}
	}
}

func registerRosterRoutes(protected *gin.RouterGroup, h *Handlers) {
	roster := protected.Group("/roster")
	roster.Use(middleware.RequirePermission("view-roster"))
	{
		roster.GET("", h.Roster.List)
		roster.GET("/:id", h.Roster.Get)
		roster.PUT("/:id/roles", middleware.RequirePermission("manage-users"), h.Roster.AssignRole)
	}

	roles := protected.Group("/roles")
	roles.Use(middleware.RequirePermission("manage-users"))
	{
		roles.GET("", h.Roster.ListRoles)
	}
}
