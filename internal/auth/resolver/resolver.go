package resolver

import (
	"context"

	"storefront/internal/auth"
)

// Resolver determines which customer an external identity belongs to.
// It is the only place where identity-to-customer mapping lives.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (customerID string, err error)
}
