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

	// Initialize database. Analytics reads the reservation and payment
	// tables the other services write, plus its own replica table.
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(&models.TenantCacheEntry{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Wire the local tenant replica: store, manager, gate, consumer.
	manager := tenantcache.NewManager(tenantcache.NewGormStore(db))
	gate := tenantcache.NewGate(manager)

	consumer := tenantcache.NewConsumer(config.KafkaBroker(), "analytics-service", manager)
	defer consumer.Close()
	go consumer.Start(context.Background())

	// Initialize the S3 report exporter
	exporter, err := NewReportExporter()
	if err != nil {
		log.Fatal("Failed to initialize report exporter:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware()
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Analytics service is healthy", nil)
	})

	// Reporting routes
	analytics := router.Group("/analytics")
	analytics.Use(authMiddleware.RequireAuth())
	{
		analytics.GET("/reservations/summary", handleReservationSummary(db, gate))
		analytics.GET("/occupancy", handleOccupancy(db, gate))
		analytics.POST("/reports/daily/export", authMiddleware.RequireTenantOwnerOrAdmin(), handleExportDailyReport(db, gate, exporter))
	}

	// Replica monitoring routes, platform admins only
	cache := router.Group("/cache")
	cache.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole("admin"))
	{
		cache.GET("/stale", handleStaleCacheReport(manager))
		cache.GET("/status-counts", handleCacheStatusCounts(manager))
	}

	// Start server
	port := os.Getenv("ANALYTICS_SERVICE_PORT")
	if port == "" {
		port = "8005"
	}

	logrus.Infof("Analytics service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start analytics service:", err)
	}
}
