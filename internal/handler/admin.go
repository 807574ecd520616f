package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
)

type productRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Stock         int             `json:"stock"`
	PurchaseUnit  int             `json:"purchaseUnit"`
	SaleUnit      int             `json:"saleUnit"`
	DepartmentID  int64           `json:"departmentId"`
}

type productPatch struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice"`
	SalePrice     *decimal.Decimal `json:"salePrice"`
	Stock         *int             `json:"stock"`
	DepartmentID  *int64           `json:"departmentId"`
}

type departmentRequest struct {
	Name *string `json:"name"`
}

func (h *Handler) registerAdmin(g *gin.RouterGroup) {
	g.GET("/departments", h.listDepartments)
	g.POST("/departments", h.createDepartment)
	g.PATCH("/departments/:id", h.updateDepartment)
	g.DELETE("/departments/:id", h.deleteDepartment)

	g.POST("/products", h.createProduct)
	g.PATCH("/products/:id", h.updateProduct)
	g.DELETE("/products/:id", h.deleteProduct)
}

// requireAdmin checks a static bearer token.
func (h *Handler) requireAdmin(c *gin.Context) {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		writeError(c, apperr.New("handler.requireAdmin", apperr.KindUnauthorized, "admin token required"))
		return
	}
	c.Next()
}

func (h *Handler) listDepartments(c *gin.Context) {
	depts, err := h.catalog.ListDepartments(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"departments": depts})
}

func (h *Handler) createDepartment(c *gin.Context) {
	var req departmentRequest
	if !bindJSON(c, "handler.createDepartment", &req) {
		return
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	d, err := h.catalog.CreateDepartment(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) updateDepartment(c *gin.Context) {
	const op = "handler.updateDepartment"
	id, valid := idParam(c, op)
	if !valid {
		return
	}
	var req departmentRequest
	if !bindJSON(c, op, &req) {
		return
	}
	d, err := h.catalog.UpdateDepartment(c.Request.Context(), id, catalog.DepartmentUpdate{Name: req.Name})
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, d)
}

func (h *Handler) deleteDepartment(c *gin.Context) {
	id, valid := idParam(c, "handler.deleteDepartment")
	if !valid {
		return
	}
	if err := h.catalog.DeleteDepartment(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, "handler.createProduct", &req) {
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), catalog.NewProduct(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	const op = "handler.updateProduct"
	id, valid := idParam(c, op)
	if !valid {
		return
	}
	var req productPatch
	if !bindJSON(c, op, &req) {
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, catalog.ProductUpdate(req))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, valid := idParam(c, "handler.deleteProduct")
	if !valid {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
