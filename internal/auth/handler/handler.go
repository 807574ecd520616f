package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/auth/provider"
	"storefront/internal/auth/resolver"
	"storefront/internal/logger"
	"storefront/internal/session"
)

// CredentialService registers and verifies password logins.
type CredentialService interface {
	Register(ctx context.Context, name, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
}

type Deps struct {
	Providers    *provider.Registry
	Resolver     resolver.Resolver // required only when Providers is non-empty
	Credentials  CredentialService
	SessionStore session.Store
	Policy       session.Policy
	Cookie       session.CookieOptions
}

type Handler struct {
	providers    *provider.Registry
	resolver     resolver.Resolver
	credentials  CredentialService
	sessionStore session.Store
	policy       session.Policy
	cookie       session.CookieOptions
	now          func() time.Time
}

func NewHandler(d Deps) *Handler {
	if d.Providers == nil {
		d.Providers = provider.NewRegistry()
	}
	return &Handler{
		providers:    d.Providers,
		resolver:     d.Resolver,
		credentials:  d.Credentials,
		sessionStore: d.SessionStore,
		policy:       d.Policy,
		cookie:       d.Cookie,
		now:          time.Now,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)

	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.callback)
}

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		writeError(c, apperr.NotFound("auth.oauthLogin", "unknown oauth provider"))
		return
	}

	state, err := generateState(c, h.cookie)
	if err != nil {
		writeError(c, apperr.StoreFailure("auth.oauthLogin", err))
		return
	}
	_, codeChallenge, err := generatePKCE(c, h.cookie)
	if err != nil {
		writeError(c, apperr.StoreFailure("auth.oauthLogin", err))
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
}

func (h *Handler) callback(c *gin.Context) {
	const op = "auth.callback"
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		writeError(c, apperr.NotFound(op, "unknown oauth provider"))
		return
	}

	if !validateState(c) {
		writeError(c, apperr.New(op, apperr.KindUnauthorized, "invalid state"))
		return
	}
	clearOAuthCookies(c, h.cookie)

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		writeError(c, apperr.New(op, apperr.KindUnauthorized, "login was not completed"))
		return
	}

	code := c.Query("code")
	if code == "" {
		writeError(c, apperr.InvalidInput(op, "missing code"))
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		writeError(c, apperr.New(op, apperr.KindUnauthorized, "missing pkce verifier"))
		return
	}

	identity, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		writeError(c, apperr.New(op, apperr.KindUnauthorized, "authentication failed"))
		return
	}

	customerID, err := h.resolver.Resolve(c.Request.Context(), identity)
	if err != nil {
		logger.Error("identity resolve failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		writeError(c, apperr.StoreFailure(op, err))
		return
	}

	if err := h.startSession(c, customerID); err != nil {
		writeError(c, apperr.StoreFailure(op, err))
		return
	}

	logger.Info("login success", map[string]any{
		"method":      "oidc",
		"provider":    providerName,
		"customer_id": customerID,
		"ip":          c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "authenticated"})
}

func (h *Handler) Logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		// best-effort; the cart goes with the session
		if err := h.sessionStore.Delete(c.Request.Context(), cookie.Value); err != nil {
			logger.Warn("session delete failed on logout", map[string]any{
				"error": err.Error(),
			})
		}
	}

	session.ClearCookie(c.Writer, h.cookie)

	c.Status(http.StatusNoContent)
}

// startSession issues a fresh session ID for customerID. A cart held by the
// caller's current session is carried over and the old session is dropped,
// so a pre-login session ID never becomes authenticated.
func (h *Handler) startSession(c *gin.Context, customerID string) error {
	ctx := c.Request.Context()
	now := h.now()

	sess, err := session.New(now, h.policy)
	if err != nil {
		return err
	}
	sess.CustomerID = customerID

	var previous string
	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		old, err := h.sessionStore.Get(ctx, cookie.Value)
		if err != nil {
			return err
		}
		if old != nil {
			sess.Cart = old.Cart
			previous = old.SessionID
		}
	}

	if err := h.sessionStore.Create(ctx, sess); err != nil {
		return err
	}
	if previous != "" {
		if err := h.sessionStore.Delete(ctx, previous); err != nil {
			logger.Warn("previous session delete failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	session.SetCookie(c.Writer, sess.SessionID, sess.ExpiresAt, h.cookie)
	return nil
}

func writeError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindStoreFailure {
		logger.Error("auth request failed", map[string]any{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{
		"error": apperr.ToPayload(err),
	})
}
