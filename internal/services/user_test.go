package services

import (
	"context"
	"testing"

	"github.com/ShameelMohamed/FASHN8/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() Registration {
	return Registration{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "s3cret",
		ConfirmPassword: "s3cret",
	}
}

func TestRegister_HashesPasswordAndStartsEmpty(t *testing.T) {
	svc := NewUserService(newFakeUsers())

	user, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NotNil(t, user.Shirts)
	assert.NotNil(t, user.Pants)

	_, err = svc.Authenticate(context.Background(), "alice", "s3cret")
	assert.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	cases := map[string]func(r *Registration){
		"missing email":     func(r *Registration) { r.Email = "" },
		"bad email":         func(r *Registration) { r.Email = "nope" },
		"mismatch":          func(r *Registration) { r.ConfirmPassword = "other" },
		"space in username": func(r *Registration) { r.Username = "al ice" },
		"slash in username": func(r *Registration) { r.Username = "al/ice" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			reg := validRegistration()
			mutate(&reg)
			_, err := NewUserService(newFakeUsers()).Register(context.Background(), reg)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := NewUserService(newFakeUsers())
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestAuthenticate_UniformFailure(t *testing.T) {
	svc := NewUserService(newFakeUsers())
	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "ghost", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
