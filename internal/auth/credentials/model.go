package credentials

import "time"

// Customer is a registered shopper.
type Customer struct {
	ID        string
	Name      string
	Login     string
	CreatedAt time.Time
}

type Credential struct {
	ID           string
	CustomerID   string
	PasswordHash string
	HashVersion  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
