package handler

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), "")
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"products": products})
}

func (h *Handler) search(c *gin.Context) {
	query := c.Query("query")
	products, err := h.catalog.Search(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"query": query, "products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, valid := idParam(c, "handler.getProduct")
	if !valid {
		return
	}
	p, err := h.catalog.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, p)
}
