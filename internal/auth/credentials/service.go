package credentials

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/db"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyRegistered  = errors.New("login already registered")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrMissingFields      = errors.New("name and login are required")
)

// Service verifies and registers customer credentials.
type Service struct {
	db *db.DB
}

func NewService(db *db.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Register(
	ctx context.Context,
	name string,
	login string,
	password string,
) (string, error) {

	name = strings.TrimSpace(name)
	login = strings.TrimSpace(login)
	if name == "" || login == "" {
		return "", ErrMissingFields
	}

	// Hash before touching the database so weak passwords fail fast.
	hash, version, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var customerID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO customers (name, login)
		VALUES ($1, $2)
		RETURNING id
	`, name, login).Scan(&customerID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return "", ErrAlreadyRegistered
		}
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (customer_id, password_hash, hash_version)
		VALUES ($1, $2, $3)
	`, customerID, hash, version)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return customerID.String(), nil
}

func (s *Service) Authenticate(
	ctx context.Context,
	login string,
	password string,
) (string, error) {

	var (
		customerID   uuid.UUID
		passwordHash string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, cr.password_hash
		FROM customers c
		JOIN credentials cr ON cr.customer_id = c.id
		WHERE LOWER(c.login) = LOWER($1)
	`, strings.TrimSpace(login)).Scan(&customerID, &passwordHash)

	if errors.Is(err, sql.ErrNoRows) {
		// hide whether the login exists
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := VerifyPassword(passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return customerID.String(), nil
}

// Get loads a customer profile.
func (s *Service) Get(ctx context.Context, customerID string) (Customer, error) {
	var c Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, login, created_at
		FROM customers
		WHERE id = $1
	`, customerID).Scan(&c.ID, &c.Name, &c.Login, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, ErrInvalidCredentials
	}
	return c, err
}
