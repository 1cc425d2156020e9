package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/controllers"
	"github.com/mobirepair/mobirepair-api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxMultipartMemory bounds the in-memory part of a photo upload
const maxMultipartMemory = 12 << 20

// setupRouter builds the HTTP surface. Rate limit counters live in store.
func setupRouter(cfg *config.Config, store middleware.CounterStore) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxMultipartMemory

	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.TokenHeader},
			ExposeHeaders:    []string{"RateLimit-Limit", "RateLimit-Remaining", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewRateLimiter(store)
	requireAuth := middleware.EnsureValidToken(cfg)
	optionalAuth := middleware.OptionalAuth(cfg)

	v1 := router.Group("/api/v1")
	v1.Use(limiter.Limit(middleware.GeneralPolicy))
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", limiter.Limit(middleware.AuthPolicy), controllers.Register)
			auth.POST("/login", limiter.Limit(middleware.AuthPolicy), controllers.Login)
			auth.GET("/me", requireAuth, controllers.GetCurrentUser)
		}

		repairs := v1.Group("/repairs")
		{
			repairs.POST("", limiter.Limit(middleware.CreationPolicy), optionalAuth, controllers.CreateRepairBooking)
			repairs.GET("/my-bookings", requireAuth, controllers.ListMyBookings)
			repairs.GET("/:id", requireAuth, controllers.GetMyBooking)
			repairs.PUT("/:id/cancel", requireAuth, controllers.CancelMyBooking)
			repairs.POST("/:id/photo", limiter.Limit(middleware.CreationPolicy), requireAuth, controllers.UploadBookingPhoto)
		}

		orders := v1.Group("/orders", requireAuth)
		{
			orders.POST("", limiter.Limit(middleware.CreationPolicy), controllers.CreateOrder)
			orders.GET("/my-orders", controllers.ListMyOrders)
			orders.GET("/:id", controllers.GetMyOrder)
			orders.PUT("/:id/cancel", controllers.CancelMyOrder)
		}

		products := v1.Group("/products", limiter.Limit(middleware.BrowsingPolicy))
		{
			products.GET("", controllers.ListProducts)
			products.GET("/featured", controllers.GetFeaturedProducts)
			products.GET("/categories", controllers.GetCategories)
			products.GET("/brands", controllers.GetBrands)
			products.GET("/:id", controllers.GetProduct)
		}

		admin := v1.Group("/admin", limiter.Limit(middleware.AdminPolicy), requireAuth, middleware.RequireAdmin())
		{
			admin.GET("/dashboard", controllers.GetDashboard)
			admin.GET("/bookings", controllers.AdminListBookings)
			admin.PUT("/bookings/:id", controllers.AdminUpdateBooking)
			admin.DELETE("/bookings/:id", controllers.AdminDeleteBooking)
			admin.POST("/send-sms", controllers.SendSMS)
			admin.GET("/orders", controllers.AdminListOrders)
			admin.PUT("/orders/:id", controllers.AdminUpdateOrder)
			admin.POST("/products", controllers.AdminCreateProduct)
			admin.PUT("/products/:id", controllers.AdminUpdateProduct)
		}
	}

	return router
}
