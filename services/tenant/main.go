package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lodgio/lodgio-platform/shared/config"
	"github.com/lodgio/lodgio-platform/shared/events"
	"github.com/lodgio/lodgio-platform/shared/middleware"
	"github.com/lodgio/lodgio-platform/shared/models"
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

	if err := db.AutoMigrate(&models.Tenant{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize the lifecycle event publisher
	publisher := events.NewTenantEventPublisher(config.KafkaBroker())
	defer publisher.Close()

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware()
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Tenant service is healthy", nil)
	})

	// Tenant management routes
	tenants := router.Group("/tenants")
	tenants.Use(authMiddleware.RequireAuth())
	{
		// Admin-only routes (platform management)
		tenants.POST("/", authMiddleware.RequireRole("admin"), handleCreateTenant(db, publisher))
		tenants.GET("/", authMiddleware.RequireRole("admin"), handleGetTenants(db))
		tenants.DELETE("/:id", authMiddleware.RequireRole("admin"), handleDeleteTenant(db, publisher))

		// Lifecycle transitions (admin only)
		tenants.POST("/:id/suspend", authMiddleware.RequireRole("admin"),
			handleLifecycleAction(db, publisher, actionSuspend, events.EventKindSuspended))
		tenants.POST("/:id/activate", authMiddleware.RequireRole("admin"),
			handleLifecycleAction(db, publisher, actionActivate, events.EventKindActivated))
		tenants.POST("/:id/expire", authMiddleware.RequireRole("admin"),
			handleLifecycleAction(db, publisher, actionExpire, events.EventKindExpired))

		// Tenant-specific routes
		tenants.GET("/:id", authMiddleware.RequireTenantAccess(), handleGetTenant(db))
		tenants.GET("/slug/:slug", handleGetTenantBySlug(db))
		tenants.PUT("/:id", authMiddleware.RequireTenantOwnerOrAdmin(), handleUpdateTenant(db, publisher))
	}

	// Start server
	port := os.Getenv("TENANT_SERVICE_PORT")
	if port == "" {
		port = "8001"
	}

	logrus.Infof("Tenant service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start tenant service:", err)
	}
}
