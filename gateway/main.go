package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lodgio/lodgio-platform/shared/config"
	"github.com/lodgio/lodgio-platform/shared/middleware"
	"github.com/lodgio/lodgio-platform/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize Redis for the auth token cache
	if err := utils.InitRedis(); err != nil {
		logrus.Warnf("Failed to connect to Redis, token caching disabled: %v", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware()
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize service clients
	serviceClients := &ServiceClients{
		Tenant:      NewServiceClient(config.GetEnv("TENANT_SERVICE_URL", "http://localhost:8001")),
		Reservation: NewServiceClient(config.GetEnv("RESERVATION_SERVICE_URL", "http://localhost:8002")),
		Payment:     NewServiceClient(config.GetEnv("PAYMENT_SERVICE_URL", "http://localhost:8003")),
		Rates:       NewServiceClient(config.GetEnv("RATES_SERVICE_URL", "http://localhost:8004")),
		Analytics:   NewServiceClient(config.GetEnv("ANALYTICS_SERVICE_URL", "http://localhost:8005")),
	}

	// Initialize Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "API Gateway is healthy", nil)
	})
	router.GET("/health/services", func(c *gin.Context) {
		utils.OKResponse(c, "Service status", serviceClients.GetServiceStatus())
	})

	// Tenant lifecycle routes (platform authority)
	tenants := router.Group("/tenants")
	tenants.Use(authMiddleware.RequireAuth())
	{
		// Admin-only routes (platform management)
		tenants.POST("/", authMiddleware.RequireRole("admin"), serviceClients.Tenant.ProxyRequest)
		tenants.GET("/", authMiddleware.RequireRole("admin"), serviceClients.Tenant.ProxyRequest)
		tenants.DELETE("/:id", authMiddleware.RequireRole("admin"), serviceClients.Tenant.ProxyRequest)
		tenants.POST("/:id/suspend", authMiddleware.RequireRole("admin"), serviceClients.Tenant.ProxyRequest)
		tenants.POST("/:id/activate", authMiddleware.RequireRole("admin"), serviceClients.Tenant.ProxyRequest)
		tenants.POST("/:id/expire", authMiddleware.RequireRole("admin"), serviceClients.Tenant.ProxyRequest)

		// Tenant-specific routes (tenant owner can see and manage their own)
		tenants.GET("/:id", authMiddleware.RequireTenantAccess(), serviceClients.Tenant.ProxyRequest)
		tenants.GET("/slug/:slug", serviceClients.Tenant.ProxyRequest)
		tenants.PUT("/:id", authMiddleware.RequireTenantOwnerOrAdmin(), serviceClients.Tenant.ProxyRequest)
	}

	// Reservation routes
	reservations := router.Group("/reservations")
	reservations.Use(authMiddleware.RequireAuth())
	{
		reservations.POST("/", serviceClients.Reservation.ProxyRequest)
		reservations.GET("/", serviceClients.Reservation.ProxyRequest)
		reservations.GET("/:id", serviceClients.Reservation.ProxyRequest)
		reservations.POST("/:id/confirm", serviceClients.Reservation.ProxyRequest)
		reservations.POST("/:id/cancel", serviceClients.Reservation.ProxyRequest)
	}

	// Payment routes
	payments := router.Group("/payments")
	payments.Use(authMiddleware.RequireAuth())
	{
		payments.POST("/", serviceClients.Payment.ProxyRequest)
		payments.GET("/", serviceClients.Payment.ProxyRequest)
		payments.GET("/:id", serviceClients.Payment.ProxyRequest)
		payments.POST("/:id/capture", serviceClients.Payment.ProxyRequest)
		payments.POST("/:id/refund", serviceClients.Payment.ProxyRequest)
	}

	// Rate plan routes
	rates := router.Group("/rates")
	rates.Use(authMiddleware.RequireAuth())
	{
		rates.POST("/", authMiddleware.RequireTenantOwnerOrAdmin(), serviceClients.Rates.ProxyRequest)
		rates.GET("/", serviceClients.Rates.ProxyRequest)
		rates.PUT("/:id", authMiddleware.RequireTenantOwnerOrAdmin(), serviceClients.Rates.ProxyRequest)
		rates.DELETE("/:id", authMiddleware.RequireTenantOwnerOrAdmin(), serviceClients.Rates.ProxyRequest)
	}

	// Reporting routes
	analytics := router.Group("/analytics")
	analytics.Use(authMiddleware.RequireAuth())
	{
		analytics.GET("/reservations/summary", serviceClients.Analytics.ProxyRequest)
		analytics.GET("/occupancy", serviceClients.Analytics.ProxyRequest)
		analytics.POST("/reports/daily/export", authMiddleware.RequireTenantOwnerOrAdmin(), serviceClients.Analytics.ProxyRequest)
	}

	// Replica monitoring routes (admin only)
	cache := router.Group("/cache")
	cache.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole("admin"))
	{
		cache.GET("/stale", serviceClients.Analytics.ProxyRequest)
		cache.GET("/status-counts", serviceClients.Analytics.ProxyRequest)
	}

	// Start server
	port := os.Getenv("API_GATEWAY_PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("API Gateway starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start API Gateway:", err)
	}
}
