// Package handler exposes the catalog, cart and checkout over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/order"
)

// Checkouts commits a session's cart.
type Checkouts interface {
	Checkout(ctx context.Context, sessionID, customerID string) (checkout.Result, error)
}

type Deps struct {
	Catalog  catalog.Store
	Carts    *cart.Engine
	Checkout Checkouts
	Orders   order.Repository
	Sessions *middleware.Sessions

	// AdminToken enables the /admin routes when non-empty.
	AdminToken string
}

type Handler struct {
	catalog    catalog.Store
	carts      *cart.Engine
	checkout   Checkouts
	orders     order.Repository
	sessions   *middleware.Sessions
	adminToken string
}

func New(d Deps) *Handler {
	return &Handler{
		catalog:    d.Catalog,
		carts:      d.Carts,
		checkout:   d.Checkout,
		orders:     d.Orders,
		sessions:   d.Sessions,
		adminToken: d.AdminToken,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.listProducts)
	r.GET("/products", h.listProducts)
	r.GET("/search", h.search)
	r.GET("/products/:id", h.getProduct)

	shop := r.Group("", middleware.Gin(h.sessions.Attach))
	shop.GET("/cart", h.getCart)
	shop.POST("/cart/items", h.addItem)
	shop.POST("/cart/items/:id", h.setQuantity)
	shop.DELETE("/cart/items/:id", h.removeItem)
	shop.POST("/checkout", h.doCheckout)
	shop.GET("/api/orders", middleware.Gin(middleware.RequireCustomer), h.listOrders)

	if h.adminToken != "" {
		h.registerAdmin(r.Group("/admin", h.requireAdmin))
	}
}

// writeError renders err as {"error":{...}}. Store failures are logged with
// their cause; clients only see the kind.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindStoreFailure {
		logger.Error("request failed", map[string]any{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		})
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{"error": apperr.ToPayload(err)})
}

func idParam(c *gin.Context, op string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(c, apperr.InvalidInput(op, "invalid id"))
		return 0, false
	}
	return id, true
}

func sessionID(c *gin.Context) string {
	sid, _ := middleware.SessionIDFromContext(c.Request.Context())
	return sid
}

func bindJSON(c *gin.Context, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, apperr.InvalidInput(op, "invalid request body"))
		return false
	}
	return true
}

func ok(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
