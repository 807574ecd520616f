package provider

import (
	"context"

	"storefront/internal/auth"
)

// OAuthProvider defines the contract every external login provider
// must implement. Implementations return identity facts only and
// must not create customers, link identities or touch sessions.
type OAuthProvider interface {
	// Name returns the provider identifier used in routes (e.g. "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider credentials
	// and returns a normalized identity.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}
