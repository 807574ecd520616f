package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  *int  `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(c *gin.Context) {
	snap, err := h.carts.Snapshot(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, snap)
}

func (h *Handler) addItem(c *gin.Context) {
	var req addItemRequest
	if !bindJSON(c, "handler.addItem", &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	count, err := h.carts.AddItem(c.Request.Context(), sessionID(c), req.ProductID, qty)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"count": count})
}

func (h *Handler) setQuantity(c *gin.Context) {
	const op = "handler.setQuantity"
	id, valid := idParam(c, op)
	if !valid {
		return
	}
	var req setQuantityRequest
	if !bindJSON(c, op, &req) {
		return
	}

	snap, err := h.carts.SetQuantity(c.Request.Context(), sessionID(c), id, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	subtotal := decimal.Zero
	if line, found := snap.Line(id); found {
		subtotal = line.Subtotal
	}
	ok(c, gin.H{
		"subtotal": subtotal.StringFixed(2),
		"total":    snap.Total.StringFixed(2),
		"count":    snap.Count,
	})
}

func (h *Handler) removeItem(c *gin.Context) {
	id, valid := idParam(c, "handler.removeItem")
	if !valid {
		return
	}

	snap, err := h.carts.RemoveItem(c.Request.Context(), sessionID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{
		"total": snap.Total.StringFixed(2),
		"count": snap.Count,
	})
}
