package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryServiceRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryService()

	id, err := s.Register(ctx, "Ana", "ana", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.Register(ctx, "Other Ana", "ANA", "another-pass")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	got, err := s.Authenticate(ctx, " Ana ", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = s.Authenticate(ctx, "ana", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	c, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ana", c.Name)
}

func TestMemoryServiceRegisterValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryService()

	_, err := s.Register(ctx, "", "ana", "s3cret-pass")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = s.Register(ctx, "Ana", "ana", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
