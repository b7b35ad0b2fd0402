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

	if err := db.AutoMigrate(&models.Payment{}, &models.TenantCacheEntry{}); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Wire the local tenant replica: store, manager, gate, consumer.
	manager := tenantcache.NewManager(tenantcache.NewGormStore(db))
	gate := tenantcache.NewGate(manager)

	consumer := tenantcache.NewConsumer(config.KafkaBroker(), "payment-service", manager)
	defer consumer.Close()
	go consumer.Start(context.Background())

	// Initialize the payment gateway client
	gateway := NewGatewayClient(config.GetEnv("PAYMENT_GATEWAY_ENDPOINT", "http://localhost:9090"))

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware()
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Payment service is healthy", nil)
	})

	// Payment routes
	payments := router.Group("/payments")
	payments.Use(authMiddleware.RequireAuth())
	{
		payments.POST("/", handleCreatePayment(db))
		payments.GET("/", handleGetPayments(db))
		payments.GET("/:id", handleGetPayment(db))
		payments.POST("/:id/capture", handleCapturePayment(db, gate, gateway))
		payments.POST("/:id/refund", handleRefundPayment(db, gate, gateway))
	}

	// Start server
	port := os.Getenv("PAYMENT_SERVICE_PORT")
	if port == "" {
		port = "8003"
	}

	logrus.Infof("Payment service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start payment service:", err)
	}
}
