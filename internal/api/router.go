package api

import (
	"net/http"

	"ecocollect/internal/api/middleware"
	"ecocollect/internal/modules/assignment"
	"ecocollect/internal/modules/orders"
	"ecocollect/internal/modules/scans"
	"ecocollect/internal/modules/tracking"
	"ecocollect/internal/modules/users"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	userHandler *users.Handler,
	scanHandler *scans.Handler,
	orderHandler *orders.Handler,
	assignmentHandler *assignment.Handler,
	trackingHandler *tracking.Handler,
	jwtSecret string,
) {
	authMiddleware := middleware.JWTAuth(jwtSecret)
	adminRequired := middleware.AdminRequired()
	fieldRoleRequired := middleware.FieldRoleRequired()

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "EcoCollect waste pickup API"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	// Anyone may see which collectors are sharing their position nearby.
	e.GET("/users/nearby", trackingHandler.NearbyWorkers)

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", userHandler.Signup)
		authGroup.POST("/login", userHandler.Login)
		authGroup.GET("/google", userHandler.GoogleLogin)
		authGroup.GET("/google/callback", userHandler.GoogleCallback)
	}

	// --- Profile & Addresses ---
	profileGroup := e.Group("/profile", authMiddleware)
	{
		profileGroup.GET("", userHandler.GetProfile)
		profileGroup.PUT("", userHandler.UpdateProfile)
		profileGroup.GET("/addresses", userHandler.ListAddresses)
		profileGroup.POST("/addresses", userHandler.AddAddress)
		profileGroup.PUT("/addresses/:addressId", userHandler.UpdateAddress)
		profileGroup.DELETE("/addresses/:addressId", userHandler.DeleteAddress)
	}

	// --- AI Scans ---
	scanGroup := e.Group("/scans", authMiddleware)
	{
		scanGroup.POST("", scanHandler.IngestScan)
		scanGroup.GET("", scanHandler.ListMyScans)
	}

	// --- Orders ---
	orderGroup := e.Group("/orders", authMiddleware)
	{
		orderGroup.POST("", orderHandler.CreateOrder)
		orderGroup.GET("/my-orders", orderHandler.ListMyOrders)
		orderGroup.GET("/stats", orderHandler.MyStats)
		orderGroup.GET("/track/:orderId", trackingHandler.TrackOrder)
		orderGroup.GET("/:orderId", orderHandler.GetOrder)
		orderGroup.PUT("/:orderId/cancel", orderHandler.CancelOrder)
		orderGroup.POST("/:orderId/rate", orderHandler.RateOrder)

		// Worker operations
		workerGroup := orderGroup.Group("/worker", fieldRoleRequired)
		{
			workerGroup.GET("/pending", assignmentHandler.AvailableOrders)
			workerGroup.GET("/assigned", orderHandler.WorkerOrders)
			workerGroup.POST("/assign/:orderId", assignmentHandler.SelfAssign)
			workerGroup.PUT("/status/:orderId", orderHandler.UpdateOrderStatus)
		}

		// Admin operations
		adminOrderGroup := orderGroup.Group("/admin", adminRequired)
		{
			adminOrderGroup.GET("/all", orderHandler.AdminListOrders)
			adminOrderGroup.POST("/assign/:orderId", assignmentHandler.AdminAssign)
			adminOrderGroup.PUT("/status/:orderId", orderHandler.UpdateOrderStatus)
		}
	}

	// --- Users: live location, duty, nearby, worker management ---
	userGroup := e.Group("/users", authMiddleware)
	{
		userGroup.POST("/live-location", trackingHandler.ReportLocation, fieldRoleRequired)
		userGroup.POST("/duty-status", trackingHandler.SetDutyStatus, fieldRoleRequired)
		userGroup.POST("/worker/:workerId/rate", userHandler.RateWorker)

		adminUserGroup := userGroup.Group("/admin", adminRequired)
		{
			adminUserGroup.POST("/workers", userHandler.AdminRegisterWorker)
			adminUserGroup.GET("/workers", userHandler.AdminListWorkers)
			adminUserGroup.PUT("/workers/:workerId/status", userHandler.AdminSetWorkerStatus)
		}
	}
}
