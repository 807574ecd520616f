package resolver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"storefront/internal/auth"
	"storefront/internal/db"
)

// DBResolver resolves identities against the customers table.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	// 1. Known identity (provider + provider_user_id)
	var customerID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		SELECT customer_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		identity.Provider,
		identity.ProviderUserID,
	).Scan(&customerID)

	if err == nil {
		return customerID.String(), tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// 2. Link to an existing customer, only on a verified email
	if identity.EmailVerified {
		err = tx.QueryRowContext(ctx, `
			SELECT id
			FROM customers
			WHERE LOWER(email) = LOWER($1)
			ORDER BY created_at
			LIMIT 1
		`, identity.Email).Scan(&customerID)

		switch {
		case err == nil:
			if err := link(ctx, tx, customerID, identity); err != nil {
				return "", err
			}
			return customerID.String(), tx.Commit()
		case !errors.Is(err, sql.ErrNoRows):
			return "", err
		}
	}

	// 3. New customer; the login falls back to a provider-scoped name when
	// the email is already taken as someone's login.
	name := identity.DisplayName
	if name == "" {
		name = identity.Email
	}
	login := identity.Email
	var taken bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE LOWER(login) = LOWER($1))
	`, login).Scan(&taken)
	if err != nil {
		return "", err
	}
	if taken {
		login = identity.Provider + ":" + identity.ProviderUserID
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO customers (name, login, email, email_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		name,
		login,
		identity.Email,
		identity.EmailVerified,
	).Scan(&customerID)
	if err != nil {
		return "", err
	}

	// 4. Identity mapping
	if err := link(ctx, tx, customerID, identity); err != nil {
		return "", err
	}

	return customerID.String(), tx.Commit()
}

func link(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, identity *auth.Identity) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO identities (customer_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`,
		customerID,
		identity.Provider,
		identity.ProviderUserID,
	)
	return err
}
