// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/discount"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/returns"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires the commerce services and registers every API route.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	// Domain services
	catalogStore := catalog.NewStore(db)
	discountStore := discount.NewStore(db)
	cartService := cart.NewService(cart.NewRedisStore(redisClient), catalogStore)
	engine := pricing.NewEngine(catalogStore, discountStore)
	orderService := order.NewService(db, catalogStore, discountStore, engine, cartService)
	returnsService := returns.NewService(db)

	// Handlers
	productHandler := handlers.NewProductHandler(catalogStore, cfg)
	cartHandler := handlers.NewCartHandler(cartService, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(cartService, engine, cartHandler, cfg)
	orderHandler := handlers.NewOrderHandler(orderService, cartHandler, cfg)
	returnsHandler := handlers.NewReturnsHandler(returnsService, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(orderHandler, cfg)

	// Catalog (public)
	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
	}

	// Cart (guest sessions or authenticated customers)
	cartRoutes := rg.Group("/cart")
	cartRoutes.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		cartRoutes.GET("", cartHandler.GetCart)
		cartRoutes.POST("/items", cartHandler.AddToCart)
		cartRoutes.PUT("/items/:product_id", cartHandler.UpdateCartItem)
		cartRoutes.DELETE("/items/:product_id", cartHandler.RemoveCartItem)
		cartRoutes.DELETE("", cartHandler.ClearCart)
	}

	// Checkout preview
	checkout := rg.Group("/checkout")
	checkout.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		checkout.POST("/quote", checkoutHandler.Quote)
	}

	// Orders (authenticated customers)
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/complete", orderHandler.CompleteOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.GET("/:id/invoice", invoiceHandler.GenerateInvoice)

		// Return workflow
		orders.POST("/:id/return", returnsHandler.RequestReturn)
		orders.GET("/:id/return/messages", returnsHandler.ListMessages)
		orders.POST("/:id/return/messages", returnsHandler.PostMessage)
	}

	// Admin
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		adminOrders := admin.Group("/orders")
		{
			adminOrders.GET("", orderHandler.AdminListOrders)
			adminOrders.POST("/:id/pay", orderHandler.AdminPayOrder)
			adminOrders.POST("/:id/fulfill", orderHandler.AdminFulfillOrder)
			adminOrders.POST("/:id/ship", orderHandler.AdminShipOrder)
			adminOrders.PUT("/:id/return", returnsHandler.AdminRespond)
		}

		adminProducts := admin.Group("/products")
		{
			adminProducts.DELETE("/:id", productHandler.AdminDeleteProduct)
			adminProducts.POST("/:id/restore", productHandler.AdminRestoreProduct)
		}
	}
}
