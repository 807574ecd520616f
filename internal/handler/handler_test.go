package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/order"
	"storefront/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type shop struct {
	t        *testing.T
	router   *gin.Engine
	catalog  *catalog.MemoryStore
	sessions *session.MemoryStore
	orders   *order.MemoryRepository
	dept     catalog.Department
	cookie   *http.Cookie
}

func newShop(t *testing.T) *shop {
	t.Helper()
	s := &shop{
		t:        t,
		catalog:  catalog.NewMemoryStore(),
		sessions: session.NewMemoryStore(),
		orders:   order.NewMemoryRepository(),
	}
	dept, err := s.catalog.CreateDepartment(context.Background(), "General")
	require.NoError(t, err)
	s.dept = dept

	carts := cart.NewEngine(s.catalog, s.sessions)
	h := New(Deps{
		Catalog:    s.catalog,
		Carts:      carts,
		Checkout:   checkout.NewService(s.catalog, carts, checkout.WithOrders(s.orders)),
		Orders:     s.orders,
		Sessions:   middleware.NewSessions(s.sessions, session.Policy{IdleTTL: time.Hour, AbsoluteTTL: 24 * time.Hour}, session.CookieOptions{}),
		AdminToken: "admin-secret",
	})
	s.router = gin.New()
	h.RegisterRoutes(s.router)
	return s
}

func (s *shop) product(name, price string, stock int) catalog.Product {
	s.t.Helper()
	p, err := s.catalog.CreateProduct(context.Background(), catalog.NewProduct{
		Name:          name,
		PurchasePrice: decimal.RequireFromString(price),
		SalePrice:     decimal.RequireFromString(price),
		Stock:         stock,
		PurchaseUnit:  1,
		SaleUnit:      1,
		DepartmentID:  s.dept.ID,
	})
	require.NoError(s.t, err)
	return p
}

// call sends a request inside the shop's session and decodes the JSON body.
func (s *shop) call(method, path, body string) (int, map[string]any) {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			s.cookie = c
		}
	}

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func errorKind(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	k, _ := e["kind"].(string)
	return k
}

func (s *shop) stock(id int64) int {
	s.t.Helper()
	p, err := s.catalog.FindByID(context.Background(), id)
	require.NoError(s.t, err)
	return p.Stock
}

func TestCatalogRoutes(t *testing.T) {
	s := newShop(t)
	coffee := s.product("Coffee", "2.00", 3)
	s.product("Tea", "1.50", 3)

	code, body := s.call(http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["products"], 2)

	code, body = s.call(http.MethodGet, "/search?query=coff", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["products"], 1)

	code, body = s.call(http.MethodGet, "/products/999", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", errorKind(body))

	code, _ = s.call(http.MethodGet, "/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.call(http.MethodGet, "/products/"+itoa(coffee.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Coffee", body["name"])
}

func TestCartAndCheckoutFlow(t *testing.T) {
	s := newShop(t)
	a := s.product("A", "2.00", 10)
	path := "/cart/items/" + itoa(a.ID)

	code, body := s.call(http.MethodPost, "/cart/items", `{"productId":`+itoa(a.ID)+`}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"], "quantity defaults to one")

	code, body = s.call(http.MethodPost, "/cart/items", `{"productId":`+itoa(a.ID)+`,"quantity":2}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["count"])

	code, body = s.call(http.MethodPost, path, `{"quantity":5}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "10.00", body["subtotal"])
	assert.Equal(t, "10.00", body["total"])
	assert.EqualValues(t, 5, body["count"])

	code, body = s.call(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 5, body["count"])

	code, body = s.call(http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "10.00", body["total"])
	assert.NotEmpty(t, body["orderId"])
	assert.Equal(t, 5, s.stock(a.ID))

	code, body = s.call(http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "empty_cart", errorKind(body))
}

func TestCheckoutInsufficientStock(t *testing.T) {
	s := newShop(t)
	b := s.product("B", "5.00", 1)

	code, _ := s.call(http.MethodPost, "/cart/items", `{"productId":`+itoa(b.ID)+`,"quantity":3}`)
	require.Equal(t, http.StatusOK, code)

	for i := 0; i < 2; i++ {
		code, body := s.call(http.MethodPost, "/checkout", "")
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "insufficient_stock", errorKind(body))
		assert.Equal(t, []any{"B"}, body["error"].(map[string]any)["products"])
	}
	assert.Equal(t, 1, s.stock(b.ID))
}

func TestCartErrors(t *testing.T) {
	s := newShop(t)
	a := s.product("A", "2.00", 10)

	code, body := s.call(http.MethodDelete, "/cart/items/"+itoa(a.ID), "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", errorKind(body))

	code, body = s.call(http.MethodPost, "/cart/items", `{"productId":`+itoa(a.ID)+`,"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", errorKind(body))

	code, body = s.call(http.MethodPost, "/cart/items", `{"quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, code, "missing product id")
	assert.Equal(t, "invalid_input", errorKind(body))

	code, _ = s.call(http.MethodPost, "/cart/items", `{"productId":`+itoa(a.ID)+`,"quantity":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.call(http.MethodPost, "/cart/items", `{"productId":4242}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.call(http.MethodPost, "/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.call(http.MethodPost, "/cart/items/"+itoa(a.ID), `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, code, "set quantity does not insert")

	code, _ = s.call(http.MethodPost, "/cart/items", `{"productId":`+itoa(a.ID)+`}`)
	require.Equal(t, http.StatusOK, code)
	code, body = s.call(http.MethodDelete, "/cart/items/"+itoa(a.ID), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0.00", body["total"])
	assert.EqualValues(t, 0, body["count"])
}

func TestOrdersRequireLogin(t *testing.T) {
	s := newShop(t)

	code, body := s.call(http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", errorKind(body))

	// promote the shop's session to a logged-in customer
	ctx := context.Background()
	sess, err := s.sessions.Get(ctx, s.cookie.Value)
	require.NoError(t, err)
	sess.CustomerID = "c-1"
	require.NoError(t, s.sessions.Update(ctx, *sess))

	a := s.product("A", "1.00", 5)
	s.call(http.MethodPost, "/cart/items", `{"productId":`+itoa(a.ID)+`}`)
	code, _ = s.call(http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusOK, code)

	code, body = s.call(http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["orders"], 1)
}

func TestAdminRoutes(t *testing.T) {
	s := newShop(t)

	code, _ := s.call(http.MethodGet, "/admin/departments", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	admin := func(method, path, body string) (int, map[string]any) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer admin-secret")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		out := map[string]any{}
		if rec.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		}
		return rec.Code, out
	}

	code, dept := admin(http.MethodPost, "/admin/departments", `{"name":"Kitchen"}`)
	require.Equal(t, http.StatusCreated, code)
	deptID := int64(dept["id"].(float64))

	code, prod := admin(http.MethodPost, "/admin/products", `{"name":"Pan","salePrice":"12.50","purchasePrice":"8","stock":4,"purchaseUnit":1,"saleUnit":1,"departmentId":`+itoa(deptID)+`}`)
	require.Equal(t, http.StatusCreated, code)
	prodID := int64(prod["id"].(float64))

	code, prod = admin(http.MethodPatch, "/admin/products/"+itoa(prodID), `{"stock":9}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 9, prod["stock"])

	code, body := admin(http.MethodDelete, "/admin/departments/"+itoa(deptID), "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", errorKind(body))

	code, _ = admin(http.MethodDelete, "/admin/products/"+itoa(prodID), "")
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = admin(http.MethodDelete, "/admin/departments/"+itoa(deptID), "")
	assert.Equal(t, http.StatusNoContent, code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
