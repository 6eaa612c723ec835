// Package routes wires the HTTP surface: public catalog and settings,
// session-or-token cart and checkout, authenticated order history and
// addresses, and the admin group behind the role check.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vendora/vendora-golang/internal/handlers"
	"github.com/vendora/vendora-golang/internal/middleware"
)

// SetupRouter builds the full gin engine.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	if h.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(h.Log))
	router.Use(middleware.CORS(h.Cfg.CORSOrigin))

	limiter := middleware.NewRateLimiter(h.Cfg.RateLimitMax, h.Cfg.RateLimitWindow)
	router.Use(limiter.RateLimit())

	// Uploaded product images are served straight off disk.
	router.Static("/uploads", h.Cfg.UploadDir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// --- Public routes ---
	public := api.Group("/")
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)

		public.GET("/products", h.ListProducts)
		public.GET("/products/:id", h.GetProduct)
		public.GET("/categories", h.ListCategories)
		public.GET("/settings", h.PublicSettings)
		public.POST("/shipping/quote", h.QuoteShipping)
	}

	// --- Cart and checkout: token or guest session ---
	session := api.Group("/")
	session.Use(middleware.OptionalAuth(h.Auth))
	{
		session.GET("/cart", h.GetCart)
		session.POST("/cart/items", h.AddToCart)
		session.PUT("/cart/items/:id", h.UpdateCartItem)
		session.DELETE("/cart/items/:id", h.DeleteCartItem)

		session.POST("/checkout/calculate", h.CalculateCheckout)
		// Guest checkout: orders are placed with a NULL user_id when no
		// token is presented.
		session.POST("/orders", h.CreateOrder)
	}

	// --- Authenticated routes ---
	authed := api.Group("/")
	authed.Use(middleware.RequireAuth(h.Auth, h.Settings))
	{
		authed.GET("/me", h.Me)
		authed.PUT("/me", h.UpdateProfile)

		authed.GET("/orders", h.MyOrders)
		authed.GET("/orders/:id", h.GetOrder)

		authed.POST("/addresses", h.CreateAddress)
		authed.GET("/addresses", h.ListAddresses)
		authed.PUT("/addresses/:id", h.UpdateAddress)
		authed.DELETE("/addresses/:id", h.DeleteAddress)
	}

	// --- Admin routes ---
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(h.Auth, h.Settings), middleware.RequireAdmin())
	{
		admin.GET("/dashboard", h.DashboardStats)

		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.DELETE("/products/:id", h.DeleteProduct)

		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.GET("/orders", h.AdminListOrders)
		admin.PATCH("/orders/:id", h.UpdateOrderStatus)

		admin.GET("/settings", h.AdminGetSettings)
		admin.PUT("/settings", h.AdminUpdateSettings)

		admin.POST("/upload", h.UploadImage)

		admin.POST("/shipping/zones", h.CreateShippingZone)
		admin.GET("/shipping/zones", h.ListShippingZones)
		admin.PUT("/shipping/zones/:id", h.UpdateShippingZone)
		admin.DELETE("/shipping/zones/:id", h.DeleteShippingZone)

		admin.POST("/shipping/rates", h.CreateShippingRate)
		admin.GET("/shipping/rates", h.ListShippingRates)
		admin.PUT("/shipping/rates/:id", h.UpdateShippingRate)
		admin.DELETE("/shipping/rates/:id", h.DeleteShippingRate)

		admin.POST("/shipping/rules", h.CreateShippingRule)
		admin.GET("/shipping/rules", h.ListShippingRules)
		admin.PUT("/shipping/rules/:id", h.UpdateShippingRule)
		admin.DELETE("/shipping/rules/:id", h.DeleteShippingRule)
	}

	return router
}
