package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bistro-backend/controllers"
	"github.com/yashrajoria/bistro-backend/middleware"
)

// Handlers groups every controller the router needs.
type Handlers struct {
	Auth     *controllers.AuthController
	Menu     *controllers.MenuController
	Carts    *controllers.CartController
	Payments *controllers.PaymentController
	Stats    *controllers.StatsController
	Health   gin.HandlerFunc
}

// RegisterRoutes wires the public, authenticated and admin-only endpoints.
// Admin routes always run Authenticated before IsAdmin.
func RegisterRoutes(r *gin.Engine, gate middleware.Gate, h Handlers) {
	authenticated := middleware.Authenticated(gate)
	isAdmin := middleware.IsAdmin(gate)
	admin := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{authenticated, isAdmin, h}
	}

	r.GET("/", controllers.Root)
	r.GET("/health", h.Health)

	r.POST("/jwt", h.Auth.IssueToken)

	users := r.Group("/users")
	{
		users.POST("", h.Auth.Register)
		users.GET("", admin(h.Auth.ListUsers)...)
		users.GET("/admin/:email", authenticated, h.Auth.AdminStatus)
		users.PATCH("/admin/:id", admin(h.Auth.Promote)...)
	}

	menu := r.Group("/menu")
	{
		menu.GET("", h.Menu.GetMenu)
		menu.POST("", admin(h.Menu.CreateMenuItem)...)
		menu.DELETE("/:id", admin(h.Menu.DeleteMenuItem)...)
	}
	r.GET("/reviews", h.Menu.GetReviews)

	carts := r.Group("/carts", authenticated)
	{
		carts.GET("", h.Carts.GetCart)
		carts.POST("", h.Carts.AddToCart)
		carts.DELETE("/:id", h.Carts.RemoveFromCart)
	}

	r.POST("/create-payment-intent", authenticated, h.Payments.CreatePaymentIntent)
	r.POST("/payments", authenticated, h.Payments.Settle)
	r.POST("/webhooks/stripe", h.Payments.Webhook)

	r.GET("/admin-stats", admin(h.Stats.AdminStats)...)
	r.GET("/order-stats", admin(h.Stats.OrderStats)...)
}
