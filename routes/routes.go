package routes

import (
	"time"

	"rivaaz-backend/firebase"
	"rivaaz-backend/handlers"
	"rivaaz-backend/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, storage firebase.StorageClient) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	customerHandler := &handlers.CustomerHandler{DB: db}
	productHandler := &handlers.ProductHandler{DB: db, Storage: storage}
	barcodeHandler := &handlers.BarcodeHandler{DB: db}
	bookingHandler := &handlers.BookingHandler{DB: db}
	deliveryHandler := &handlers.DeliveryHandler{DB: db, Storage: storage}
	returnHandler := &handlers.ReturnHandler{DB: db}
	settlementHandler := &handlers.SettlementHandler{DB: db, Storage: storage}

	// Brute-force protection on the credential endpoints only
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Public routes
	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(authLimiter.Middleware())
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		// User profile
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/password", authHandler.ChangePassword)

		// Customer routes
		protected.POST("/customers", customerHandler.CreateCustomer)
		protected.GET("/customers", customerHandler.GetCustomers)
		protected.GET("/customers/:id", customerHandler.GetCustomer)
		protected.PUT("/customers/:id", customerHandler.UpdateCustomer)

		// Product and barcode pool routes
		protected.GET("/products", productHandler.GetProducts)
		protected.POST("/products", productHandler.CreateProduct)
		protected.GET("/products/:id", productHandler.GetProduct)
		protected.PUT("/products/:id", productHandler.UpdateProduct)
		protected.DELETE("/products/:id", productHandler.DeleteProduct)
		protected.POST("/products/:id/image", productHandler.UploadProductImage)
		protected.POST("/products/:id/barcodes", productHandler.GenerateBarcodes)
		protected.GET("/products/:id/barcodes", productHandler.GetProductBarcodes)

		// Barcode scanning
		protected.POST("/barcodes/scan", barcodeHandler.Scan)
		protected.GET("/barcodes/:number", barcodeHandler.Lookup)

		// Booking routes
		protected.POST("/bookings", bookingHandler.CreateBooking)
		protected.GET("/bookings", bookingHandler.GetBookings)
		protected.GET("/bookings/:id", bookingHandler.GetBooking)
		protected.PUT("/bookings/:id/confirm", bookingHandler.ConfirmBooking)
		protected.PUT("/bookings/:id/cancel", bookingHandler.CancelBooking)
		protected.POST("/bookings/:id/barcodes", bookingHandler.AssignBarcodes)
		protected.GET("/bookings/:id/barcodes", bookingHandler.GetBookingBarcodes)
		protected.DELETE("/bookings/:id/barcodes/:assignmentId", bookingHandler.UnassignBarcode)

		// Deposit settlement
		protected.POST("/bookings/:id/settlement", settlementHandler.FinalizeSettlement)
		protected.GET("/bookings/:id/settlement", settlementHandler.GetSettlement)

		// Delivery routes
		protected.POST("/deliveries", deliveryHandler.CreateDelivery)
		protected.GET("/deliveries", deliveryHandler.GetDeliveries)
		protected.GET("/deliveries/:id", deliveryHandler.GetDelivery)
		protected.PUT("/deliveries/:id/status", deliveryHandler.UpdateDeliveryStatus)
		protected.POST("/deliveries/:id/handover", deliveryHandler.SaveHandover)
		protected.POST("/deliveries/:id/photo", deliveryHandler.UploadHandoverPhoto)

		// Return routes
		protected.GET("/returns", returnHandler.GetReturns)
		protected.GET("/returns/:id", returnHandler.GetReturn)
		protected.GET("/returns/:id/preview", returnHandler.PreviewReturn)
		protected.POST("/returns/:id/preview", returnHandler.PreviewReturn)
		protected.POST("/returns/:id/process", returnHandler.ProcessReturn)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
