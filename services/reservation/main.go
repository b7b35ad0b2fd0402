package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lodgio/lodgio-platform/shared/config"
	"github.com/lodgio/lodgio-platform/shared/middleware"
	"github.com/lodgio/lodgio-platform/shared/models"
	"github.com/lodgio/lodgio-platform/shared/tenantcache"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize Redis for the auth token cache
	if err := utils.InitRedis(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer utils.CloseRedis()

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.Reservation{}, &models.TenantCacheEntry{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Wire the local tenant replica: store, manager, gate, consumer.
	manager := tenantcache.NewManager(tenantcache.NewGormStore(db))
	gate := tenantcache.NewGate(manager)

	consumer := tenantcache.NewConsumer(config.KafkaBroker(), "reservation-service", manager)
	defer consumer.Close()
	go consumer.Start(context.Background())

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware()
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Reservation service is healthy", nil)
	})

	// Reservation routes
	reservations := router.Group("/reservations")
	reservations.Use(authMiddleware.RequireAuth())
	{
		reservations.POST("/", handleCreateReservation(db, gate))
		reservations.GET("/", handleGetReservations(db))
		reservations.GET("/:id", handleGetReservation(db))
		reservations.POST("/:id/confirm", handleConfirmReservation(db, gate))
		reservations.POST("/:id/cancel", handleCancelReservation(db))
	}

	// Start server
	port := os.Getenv("RESERVATION_SERVICE_PORT")
	if port == "" {
		port = "8002"
	}

	logrus.Infof("Reservation service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start reservation service:", err)
	}
}
