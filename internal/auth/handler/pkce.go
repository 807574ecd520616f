package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/session"
	"storefront/internal/utils"
)

const (
	pkceCookieName = "__oauth_pkce"
	pkceTTL        = 5 * time.Minute
)

func generatePKCE(c *gin.Context, opts session.CookieOptions) (verifier string, challenge string, err error) {
	verifier, err = utils.RandomToken(32)
	if err != nil {
		return "", "", err
	}

	challenge = pkceChallenge(verifier)
	setFlowCookie(c, pkceCookieName, verifier, pkceTTL, opts)

	return verifier, challenge, nil
}

// pkceChallenge is the S256 transform from RFC 7636.
func pkceChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func getPKCEVerifier(c *gin.Context) string {
	cookie, err := c.Request.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
