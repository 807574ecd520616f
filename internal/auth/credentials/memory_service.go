package credentials

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryService keeps customers in process. Used when no database is
// configured.
type MemoryService struct {
	mu        sync.Mutex
	customers map[string]Customer   // by id
	byLogin   map[string]Credential // by lower(login)
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		customers: make(map[string]Customer),
		byLogin:   make(map[string]Credential),
	}
}

func (s *MemoryService) Register(_ context.Context, name, login, password string) (string, error) {
	name = strings.TrimSpace(name)
	login = strings.TrimSpace(login)
	if name == "" || login == "" {
		return "", ErrMissingFields
	}

	hash, version, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	key := strings.ToLower(login)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byLogin[key]; ok {
		return "", ErrAlreadyRegistered
	}

	now := time.Now().UTC()
	c := Customer{ID: uuid.NewString(), Name: name, Login: login, CreatedAt: now}
	s.customers[c.ID] = c
	s.byLogin[key] = Credential{
		ID:           uuid.NewString(),
		CustomerID:   c.ID,
		PasswordHash: hash,
		HashVersion:  version,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return c.ID, nil
}

func (s *MemoryService) Authenticate(_ context.Context, login, password string) (string, error) {
	s.mu.Lock()
	cred, ok := s.byLogin[strings.ToLower(strings.TrimSpace(login))]
	s.mu.Unlock()

	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := VerifyPassword(cred.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return cred.CustomerID, nil
}

func (s *MemoryService) Get(_ context.Context, customerID string) (Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID]
	if !ok {
		return Customer{}, ErrInvalidCredentials
	}
	return c, nil
}
