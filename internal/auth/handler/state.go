package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/session"
	"storefront/internal/utils"
)

const (
	stateCookieName = "__oauth_state"
	stateTTL        = 5 * time.Minute
)

func generateState(c *gin.Context, opts session.CookieOptions) (string, error) {
	state, err := utils.RandomToken(32)
	if err != nil {
		return "", err
	}
	setFlowCookie(c, stateCookieName, state, stateTTL, opts)
	return state, nil
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(stateQuery)) == 1
}

// setFlowCookie issues a short-lived cookie scoped to the oauth routes.
func setFlowCookie(c *gin.Context, name, value string, ttl time.Duration, opts session.CookieOptions) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/oauth",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func clearOAuthCookies(c *gin.Context, opts session.CookieOptions) {
	for _, name := range []string{stateCookieName, pkceCookieName} {
		setFlowCookie(c, name, "", -time.Second, opts)
	}
}
