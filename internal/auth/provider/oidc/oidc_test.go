package oidc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebase(t *testing.T) {
	got, err := rebase(
		"http://keycloak:8080/realms/storefront/protocol/openid-connect/auth",
		"https://login.example.com",
	)
	require.NoError(t, err)
	assert.Equal(t, "https://login.example.com/realms/storefront/protocol/openid-connect/auth", got)

	_, err = rebase("http://keycloak:8080/auth", "login.example.com")
	assert.Error(t, err)
}

func TestNewRequiresFields(t *testing.T) {
	_, err := New(context.Background(), Config{Name: "google"})
	assert.Error(t, err)
}
