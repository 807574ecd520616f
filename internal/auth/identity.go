package auth

// Identity is what an external login provider asserts about a shopper.
// It carries facts only; mapping to a customer happens in the resolver.
type Identity struct {
	Provider       string // e.g. "google", "keycloak"
	ProviderUserID string // provider-scoped subject
	Email          string
	EmailVerified  bool
	DisplayName    string
}
