package handler

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/order"
)

func (h *Handler) doCheckout(c *gin.Context) {
	ctx := c.Request.Context()
	customerID, _ := middleware.CustomerIDFromContext(ctx)

	res, err := h.checkout.Checkout(ctx, sessionID(c), customerID)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{
		"success": res.Success,
		"total":   res.Total.StringFixed(2),
		"lines":   res.Lines,
	}
	if res.OrderID != nil {
		body["orderId"] = res.OrderID.String()
	}
	ok(c, body)
}

func (h *Handler) listOrders(c *gin.Context) {
	ctx := c.Request.Context()
	customerID, _ := middleware.CustomerIDFromContext(ctx)

	orders := []order.Order{}
	if h.orders != nil {
		var err error
		if orders, err = h.orders.ListByCustomer(ctx, customerID); err != nil {
			writeError(c, err)
			return
		}
	}
	ok(c, gin.H{"orders": orders})
}
