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

	if err := db.AutoMigrate(&models.RatePlan{}, &models.TenantCacheEntry{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Wire the local tenant replica: store, manager, gate, consumer.
	manager := tenantcache.NewManager(tenantcache.NewGormStore(db))
	gate := tenantcache.NewGate(manager)

	consumer := tenantcache.NewConsumer(config.KafkaBroker(), "rates-service", manager)
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
		utils.OKResponse(c, "Rates service is healthy", nil)
	})

	// Rate plan routes
	rates := router.Group("/rates")
	rates.Use(authMiddleware.RequireAuth())
	{
		rates.POST("/", authMiddleware.RequireTenantOwnerOrAdmin(), handleCreateRatePlan(db, gate))
		rates.GET("/", handleGetRatePlans(db))
		rates.PUT("/:id", authMiddleware.RequireTenantOwnerOrAdmin(), handleUpdateRatePlan(db, gate))
		rates.DELETE("/:id", authMiddleware.RequireTenantOwnerOrAdmin(), handleDeleteRatePlan(db, gate))
	}

	// Start server
	port := os.Getenv("RATES_SERVICE_PORT")
	if port == "" {
		port = "8004"
	}

	logrus.Infof("Rates service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start rates service:", err)
	}
}
