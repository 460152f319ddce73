package stubapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func (h HandlerSet) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cart, err := h.store.AddCartItem(currentUser(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "product not found"})
		case errors.Is(err, ErrOutOfStock):
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, cart)
}

type updateCartRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (h HandlerSet) updateCart(c *gin.Context) {
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cart, err := h.store.UpdateCartItem(currentUser(c).ID, c.Param("productId"), req.Quantity)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "item not in cart"})
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h HandlerSet) deleteFromCart(c *gin.Context) {
	cart, err := h.store.RemoveCartItem(currentUser(c).ID, c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "item not in cart"})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// getCarts returns an array wrapping the session's single cart; the real
// backend shapes it this way and clients depend on it.
func (h HandlerSet) getCarts(c *gin.Context) {
	cart := h.store.CartForUser(currentUser(c).ID)
	c.JSON(http.StatusOK, []any{cart})
}
