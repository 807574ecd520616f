package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/auth/credentials"
	authhandler "storefront/internal/auth/handler"
	"storefront/internal/auth/provider"
	"storefront/internal/auth/provider/oidc"
	"storefront/internal/auth/resolver"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/session"
)

func setupHTTP(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {

	// ----------------------------
	// Dependencies
	// ----------------------------

	mode, err := checkout.ParseValidationMode(cfg.CheckoutValidation)
	if err != nil {
		return nil, err
	}

	policy := session.Policy{
		IdleTTL:     cfg.SessionIdleTTL,
		AbsoluteTTL: cfg.SessionAbsoluteTTL,
	}
	cookie := session.CookieOptions{
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}

	carts := cart.NewEngine(infra.Catalog, infra.Sessions)
	checkouts := checkout.NewService(
		infra.Catalog,
		carts,
		checkout.WithOrders(infra.Orders),
		checkout.WithValidation(mode),
	)

	shopHandler := handler.New(handler.Deps{
		Catalog:    infra.Catalog,
		Carts:      carts,
		Checkout:   checkouts,
		Orders:     infra.Orders,
		Sessions:   middleware.NewSessions(infra.Sessions, policy, cookie),
		AdminToken: cfg.AdminToken,
	})

	authDeps := authhandler.Deps{
		SessionStore: infra.Sessions,
		Policy:       policy,
		Cookie:       cookie,
	}
	if infra.DB != nil {
		authDeps.Credentials = credentials.NewService(infra.DB)
		authDeps.Resolver = resolver.NewDBResolver(infra.DB)

		registry, err := setupProviders(ctx, cfg)
		if err != nil {
			return nil, err
		}
		authDeps.Providers = registry
	} else {
		// external logins need the customers table
		authDeps.Credentials = credentials.NewMemoryService()
	}
	authHandler := authhandler.NewHandler(authDeps)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery(), requestLog())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	shopHandler.RegisterRoutes(router)
	authHandler.RegisterRoutes(router)

	for _, route := range router.Routes() {
		logger.Info("route", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}

	return router, nil
}

// setupProviders builds an OIDC provider for every fully configured issuer.
func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	var list []provider.OAuthProvider

	if cfg.GoogleClientID != "" {
		p, err := oidc.New(ctx, oidc.Config{
			Name:         "google",
			Issuer:       "https://accounts.google.com",
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	if cfg.KeycloakIssuer != "" {
		p, err := oidc.New(ctx, oidc.Config{
			Name:          "keycloak",
			Issuer:        cfg.KeycloakIssuer,
			ClientID:      cfg.KeycloakClientID,
			ClientSecret:  cfg.KeycloakClientSecret,
			RedirectURL:   cfg.KeycloakRedirectURL,
			PublicBaseURL: cfg.KeycloakPublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	registry := provider.NewRegistry(list...)
	logger.Info("oauth providers configured", map[string]any{
		"providers": registry.Names(),
	})
	return registry, nil
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		})
	}
}
