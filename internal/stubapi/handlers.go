package stubapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"shopfront/internal/config"
	"shopfront/model"
)

type HandlerSet struct {
	log   zerolog.Logger
	cfg   config.StubConfig
	store *Store
}

func NewHandlerSet(log zerolog.Logger, cfg config.StubConfig, store *Store) HandlerSet {
	return HandlerSet{
		log:   log,
		cfg:   cfg,
		store: store,
	}
}

func (h HandlerSet) Routes(router *gin.RouterGroup) {
	router.GET("/healthz", h.health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", h.logout)

	v1.GET("/products", h.listProducts)
	v1.GET("/products/:id", h.getProduct)
	v1.GET("/categories", h.listCategories)
	v1.GET("/reviews", h.listReviews)

	authed := v1.Group("")
	authed.Use(h.authRequired())
	{
		authed.GET("/users/me", h.me)

		carts := authed.Group("/carts")
		carts.POST("/addtocart", h.addToCart)
		carts.PUT("/updateCart/:productId", h.updateCart)
		carts.DELETE("/deleteProduct/:productId", h.deleteFromCart)
		carts.GET("/getcarts", h.getCarts)

		authed.POST("/orders/addOrder/:cartId", h.addOrder)
		authed.GET("/orders", h.listOrders)
		authed.POST("/reviews", h.createReview)

		seller := authed.Group("")
		seller.Use(requireRoles(model.UserRoleSeller, model.UserRoleAdmin))
		seller.GET("/seller/products", h.listSellerProducts)
		seller.POST("/products", h.createProduct)
		seller.PUT("/products/:id", h.updateProduct)
		seller.DELETE("/products/:id", h.deleteProduct)
		seller.PUT("/orders/:id/status", h.updateOrderStatus)

		admin := authed.Group("")
		admin.Use(requireRoles(model.UserRoleAdmin))
		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.PUT("/users/:id", h.updateUser)
		admin.DELETE("/users/:id", h.deleteUser)
		admin.POST("/categories", h.createCategory)
		admin.PUT("/categories/:id", h.updateCategory)
		admin.DELETE("/categories/:id", h.deleteCategory)
		admin.DELETE("/reviews/:id", h.deleteReview)
	}
}

func (h HandlerSet) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
