package main

import (
	"os"

	"github.com/buildcrew/fieldreport-api/internal/application/service"
	"github.com/buildcrew/fieldreport-api/internal/config"
	"github.com/buildcrew/fieldreport-api/internal/domain/report"
	domainRepo "github.com/buildcrew/fieldreport-api/internal/domain/repository"
	"github.com/buildcrew/fieldreport-api/internal/infrastructure/cache"
	"github.com/buildcrew/fieldreport-api/internal/infrastructure/database"
	"github.com/buildcrew/fieldreport-api/internal/infrastructure/repository"
	"github.com/buildcrew/fieldreport-api/internal/presentation/http/handler"
	"github.com/buildcrew/fieldreport-api/internal/presentation/http/routes"
	"github.com/buildcrew/fieldreport-api/pkg/logger"
	"github.com/buildcrew/fieldreport-api/pkg/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.App.Env)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		log.WithError(err).Warn("Failed to seed default data")
	}

	// Backup store: Redis when configured, in-memory otherwise
	var backupStore domainRepo.BackupStore
	if cfg.Redis.Addr != "" {
		rdb, err := database.NewRedisClient(&cfg.Redis, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		backupStore = cache.NewRedisBackupStore(rdb, cfg.Autosave.BackupTTL, log)
	} else {
		log.Warn("No Redis address configured, report backups are in-memory only")
		backupStore = cache.NewMemoryBackupStore()
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reportRepo := repository.NewReportRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, roleRepo, jwtManager)
	userService := service.NewUserService(userRepo, roleRepo)
	orderService := service.NewOrderService(orderRepo)
	reportService := service.NewReportService(reportRepo, cfg.Report.ManagerRoles)
	rowController := report.NewController(cfg.Report.RowPalette)
	sessionService := service.NewSessionService(reportService, backupStore, rowController, cfg.Autosave, log)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Report: handler.NewReportHandler(sessionService),
		Order:  handler.NewOrderHandler(orderService),
		Roster: handler.NewRosterHandler(userService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		Log:             log,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Infof("Starting %s server on port %s (env: %s)", cfg.App.Name, port, cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
		os.Exit(1)
	}
}
