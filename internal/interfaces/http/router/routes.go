package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesdesk/backend/internal/interfaces/http/dto"
	"github.com/salesdesk/backend/internal/interfaces/http/handler"
)

// Handlers aggregates the handlers behind the REST surface.
type Handlers struct {
	Products  *handler.ProductHandler
	Customers *handler.CustomerHandler
	Bills     *handler.BillHandler
	Sales     *handler.SaleHandler
	Auth      *handler.AuthHandler
	System    *handler.SystemHandler
}

// RegisterAll mounts the versioned API surface:
//
//	/api/v1/products   CRUD
//	/api/v1/customers  CRUD
//	/api/v1/bills      list, get, receipt PDF
//	/api/v1/sales      create, create by email
//	/api/v1/auth       register, confirm, login, refresh, logout
func RegisterAll(r *Router, h Handlers) {
	products := NewResourceGroup("/products")
	products.POST("", h.Products.Create)
	products.GET("", h.Products.List)
	products.GET("/:id", h.Products.GetByID)
	products.PUT("/:id", h.Products.Update)
	products.DELETE("/:id", h.Products.Delete)

	customers := NewResourceGroup("/customers")
	customers.POST("", h.Customers.Create)
	customers.GET("", h.Customers.List)
	customers.GET("/:id", h.Customers.GetByID)
	customers.PUT("/:id", h.Customers.Update)
	customers.DELETE("/:id", h.Customers.Delete)

	bills := NewResourceGroup("/bills")
	bills.GET("", h.Bills.List)
	bills.GET("/:id", h.Bills.GetByID)
	bills.GET("/:id/receipt.pdf", h.Bills.ReceiptPDF)

	sales := NewResourceGroup("/sales")
	sales.POST("", h.Sales.Create)
	sales.POST("/by-email", h.Sales.CreateByEmail)

	auth := NewResourceGroup("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/confirm", h.Auth.Confirm)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	r.Register(products).
		Register(customers).
		Register(bills).
		Register(sales).
		Register(auth)
}

// RegisterSystem mounts the health probes at the root, outside the
// versioned group, so load balancers reach them unauthenticated.
func RegisterSystem(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
}

// RegisterFallbacks makes unmatched routes and methods answer with the
// standard error envelope instead of gin's plain text.
func RegisterFallbacks(engine *gin.Engine) {
	engine.HandleMethodNotAllowed = true

	engine.NoRoute(func(c *gin.Context) {
		envelope := dto.NewErrorResponse(http.StatusNotFound, "Resource not found")
		c.JSON(envelope.StatusCode, envelope)
	})
	engine.NoMethod(func(c *gin.Context) {
		envelope := dto.NewErrorResponse(http.StatusMethodNotAllowed, "Method not allowed")
		c.JSON(envelope.StatusCode, envelope)
	})
}
