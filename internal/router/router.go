package router

import (
	"go-warehouse-ws/internal/handler"
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Product   *handler.ProductHandler
	Order     *handler.OrderHandler
	Dashboard *handler.DashboardHandler
	User      *handler.UserHandler
	Health    *handler.HealthHandler
}

// Setup registers every route on app. hub may be nil, in which case /ws is not served.
func Setup(app *fiber.App, h Handlers, authService service.AuthService, hub *ws.Hub) {
	app.Get("/health", h.Health.Health)

	api := app.Group("/api/v1")
	api.Get("/health", h.Health.Health)

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/register", h.Auth.Register)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(authService))
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleManager)
	admins := middleware.RequireRole(model.RoleAdmin)

	// Dashboard Routes (authenticated users can view)
	protected.Get("/dashboard/stats", h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", h.Dashboard.GetStockMovement)
	protected.Get("/stock-movements", h.Dashboard.GetMovements)

	// Product Routes
	protected.Get("/products", h.Product.GetProducts)
	protected.Get("/products/low-stock", h.Product.GetLowStock)
	protected.Get("/products/:id", h.Product.GetProduct)
	protected.Post("/products", managers, h.Product.CreateProduct)
	protected.Patch("/products/:id", managers, h.Product.UpdateProduct)
	protected.Delete("/products/:id", managers, h.Product.DeleteProduct)
	protected.Patch("/products/:id/stock", h.Product.AdjustStock)

	// Order Routes
	protected.Get("/orders", h.Order.GetOrders)
	protected.Get("/orders/:id", h.Order.GetOrder)
	protected.Post("/orders", h.Order.CreateOrder)
	protected.Post("/orders/:id/process", h.Order.ProcessOrder)
	protected.Patch("/orders/:id", managers, h.Order.UpdateOrder)
	protected.Delete("/orders/:id", managers, h.Order.DeleteOrder)

	// User Management Routes
	protected.Get("/users", managers, h.User.GetUsers)
	protected.Get("/users/:id", managers, h.User.GetUser)
	protected.Post("/users", admins, h.User.CreateUser)
	protected.Patch("/users/:id", admins, h.User.UpdateUser)
	protected.Delete("/users/:id", admins, h.User.DeleteUser)

	if hub == nil {
		return
	}

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register <- c
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
