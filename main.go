package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ratacueva-backend/config"
	"ratacueva-backend/database"
	"ratacueva-backend/internal/api"
	"ratacueva-backend/internal/middleware"
	"ratacueva-backend/internal/services"
)

func main() {
	// Load .env if present; real deployments use actual env vars
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("invalid configuration: " + err.Error())
	}

	logger := newLogger(cfg.Environment)
	defer logger.Sync()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Services
	emailService := services.NewEmailService(db, cfg, logger)
	paymentService := services.NewPaymentService(cfg, logger)
	trackingFeed := services.NewTrackingFeed(logger)
	authService := services.NewAuthService(db, cfg, emailService, logger)
	userService := services.NewUserService(db, logger)
	productService := services.NewProductService(db, logger)
	cartService := services.NewCartService(db, logger)
	reviewService := services.NewReviewService(db, logger)
	shippingService := services.NewShippingService(db, emailService, trackingFeed, logger)
	orderService := services.NewOrderService(db, paymentService, emailService,
		shippingService, cfg.DefaultShippingProvider, logger)
	favoritesService := services.NewFavoritesService(db, logger)
	pcBuildService := services.NewPcBuildService(db, cartService, logger)

	// Handlers
	authHandler := api.NewAuthHandler(authService, logger)
	userHandler := api.NewUserHandler(userService, authService, logger)
	productHandler := api.NewProductHandler(productService, logger)
	cartHandler := api.NewCartHandler(cartService, logger)
	orderHandler := api.NewOrderHandler(orderService, logger)
	reviewHandler := api.NewReviewHandler(reviewService, logger)
	shippingHandler := api.NewShippingHandler(shippingService, trackingFeed, logger)
	favoritesHandler := api.NewFavoritesHandler(favoritesService, logger)
	pcBuildHandler := api.NewPcBuildHandler(pcBuildService, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow).Middleware())
	if cfg.EnableMetrics {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRequired := middleware.Authenticate(authService)
	staffOnly := middleware.RequireStaff()

	apiGroup := router.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/verify", authHandler.VerifyEmail)
		}

		users := apiGroup.Group("/users", authRequired)
		{
			users.GET("/me", userHandler.GetProfile)
			users.PUT("/me", userHandler.UpdateProfile)
			users.DELETE("/me", userHandler.DeleteAccount)
			users.PUT("/me/password", userHandler.ChangePassword)
			users.POST("/me/addresses", userHandler.AddAddress)
			users.PUT("/me/addresses/:addressId", userHandler.UpdateAddress)
			users.DELETE("/me/addresses/:addressId", userHandler.DeleteAddress)
			users.POST("/me/payment-methods", userHandler.AddPaymentMethod)
			users.PUT("/me/payment-methods/:methodId", userHandler.UpdatePaymentMethod)
			users.DELETE("/me/payment-methods/:methodId", userHandler.DeletePaymentMethod)
		}

		products := apiGroup.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:productId", productHandler.GetProduct)
			products.GET("/:productId/reviews", reviewHandler.ListProductReviews)

			products.POST("", authRequired, staffOnly, productHandler.CreateProduct)
			products.PUT("/:productId", authRequired, staffOnly, productHandler.UpdateProduct)
			products.PATCH("/:productId/stock", authRequired, staffOnly, productHandler.UpdateStock)
			products.PATCH("/:productId/discount", authRequired, staffOnly, productHandler.UpdateDiscount)
			products.PATCH("/:productId/featured", authRequired, staffOnly, productHandler.SetFeatured)
			products.PATCH("/:productId/new", authRequired, staffOnly, productHandler.SetNewProduct)
			products.DELETE("/:productId", authRequired, staffOnly, productHandler.DeleteProduct)
		}

		cart := apiGroup.Group("/cart", authRequired)
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.ClearCart)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:itemId", cartHandler.UpdateItem)
			cart.DELETE("/items/:itemId", cartHandler.RemoveItem)
			cart.POST("/sync", cartHandler.SyncCart)
		}

		orders := apiGroup.Group("/orders", authRequired)
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("", orderHandler.ListMyOrders)
			orders.GET("/:orderId", orderHandler.GetOrder)
			orders.PATCH("/:orderId/cancel", orderHandler.CancelOrder)
		}

		adminOrders := apiGroup.Group("/admin/orders", authRequired, staffOnly)
		{
			adminOrders.GET("", orderHandler.ListOrders)
			adminOrders.PATCH("/:orderId/status", orderHandler.UpdateOrderStatus)
			adminOrders.PATCH("/:orderId/payment", orderHandler.UpdatePaymentStatus)
			adminOrders.PATCH("/:orderId/shipping", orderHandler.UpdateShippingDetails)
		}

		reviews := apiGroup.Group("/reviews", authRequired)
		{
			reviews.POST("", reviewHandler.CreateReview)
			reviews.PUT("/:reviewId", reviewHandler.UpdateReview)
			reviews.DELETE("/:reviewId", reviewHandler.DeleteReview)
		}

		shipping := apiGroup.Group("/shipping")
		{
			shipping.GET("/track/:trackingNumber", shippingHandler.TrackShipment)
			shipping.GET("/:shipmentId/feed", shippingHandler.Feed)

			shipping.POST("", authRequired, staffOnly, shippingHandler.CreateShipment)
			shipping.GET("", authRequired, staffOnly, shippingHandler.ListShipments)
			shipping.GET("/:shipmentId", authRequired, staffOnly, shippingHandler.GetShipment)
			shipping.PATCH("/:shipmentId/status", authRequired, staffOnly, shippingHandler.UpdateShipmentStatus)
		}

		favorites := apiGroup.Group("/favorites", authRequired)
		{
			favorites.GET("", favoritesHandler.ListFavorites)
			favorites.POST("/:productId", favoritesHandler.AddFavorite)
			favorites.DELETE("/:productId", favoritesHandler.RemoveFavorite)
		}

		pcBuilds := apiGroup.Group("/pc-builds", authRequired)
		{
			pcBuilds.POST("", pcBuildHandler.CreateBuild)
			pcBuilds.GET("", pcBuildHandler.ListBuilds)
			pcBuilds.DELETE("/:buildId", pcBuildHandler.DeleteBuild)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func newLogger(environment string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}
