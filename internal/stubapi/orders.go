package stubapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopfront/model"
)

type addOrderRequest struct {
	CouponCode      string `json:"couponCode"`
	ShippingAddress string `json:"shippingAddress"`
}

func (h HandlerSet) addOrder(c *gin.Context) {
	var req addOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
	}

	order, err := h.store.CreateOrder(currentUser(c).ID, c.Param("cartId"), req.CouponCode, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "cart not found"})
		case errors.Is(err, ErrCartEmpty), errors.Is(err, ErrInvalidCoupon):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h HandlerSet) listOrders(c *gin.Context) {
	page, limit := pageParams(c)

	// Buyers see their own orders; sellers and admins see all.
	userFilter := ""
	if user := currentUser(c); user.Role == model.UserRoleBuyer {
		userFilter = user.ID
	}

	result := h.store.ListOrders(page, limit, userFilter, model.OrderStatus(c.Query("status")))
	c.JSON(http.StatusOK, result)
}

type orderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

func (h HandlerSet) updateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	order, err := h.store.TransitionOrder(c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		case errors.Is(err, ErrBadTransition):
			c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}
