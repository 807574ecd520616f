package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
)

// Gin adapts a net/http middleware to Gin. The wrapped middleware either
// calls through, which continues the Gin chain with its request, or
// writes a response, which aborts it.
func Gin(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		if !called {
			c.Abort()
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apperr.HTTPStatus(apperr.KindOf(err)))
	_ = json.NewEncoder(w).Encode(map[string]any{"error": apperr.ToPayload(err)})
}
