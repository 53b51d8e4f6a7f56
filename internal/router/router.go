package router

import (
	"log"

	"github.com/ecobin-app/backend/internal/handlers"
	"github.com/ecobin-app/backend/internal/middleware"
	"github.com/ecobin-app/backend/internal/models"
	"github.com/ecobin-app/backend/internal/repositories"
	"github.com/ecobin-app/backend/internal/ws"
	"github.com/ecobin-app/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, cfg *config.Config) {
	// AutoMigrate PostgreSQL models
	if err := pgdb.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	mongoDB := mgClient.Database(cfg.MongoDatabase)
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	messageRepo := repositories.NewMongoMessageRepository(mongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(mongoDB, cfg.NotificationRetention, cfg.NotificationReadAging)

	// --- Realtime relay ---
	hub := ws.NewHub()
	relay := ws.NewRelay(hub, messageRepo)
	wsHandler := ws.NewHandler(relay)
	wsHandler.RegisterWSRoutes(e)
	log.Println("Realtime relay configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// Message routes
	messageHandler := handlers.NewMessageHandler(messageRepo, userRepo)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, cfg.CleanupSecret)
	notificationHandler.RegisterNotificationRoutes(api)
	notificationHandler.RegisterCleanupRoute(e)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
