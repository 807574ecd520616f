package session

import (
	"fmt"

	"storefront/internal/utils"
)

// GenerateID generates an opaque session ID with 256 bits of entropy.
func GenerateID() (string, error) {
	id, err := utils.RandomToken(32)
	if err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return id, nil
}
