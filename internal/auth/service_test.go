package auth

import (
	"context"
	"testing"

	"paper-trader-go/internal/database/databasetest"
	"paper-trader-go/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func setupService(t *testing.T) (*Service, repository.Store) {
	store := repository.NewStore(databasetest.NewMemoryDB(t))
	return NewService(store, decimal.RequireFromString("1000.00"), bcrypt.MinCost, zap.NewNop()), store
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Username:     "ada",
		Password:     "s3cret",
		Confirmation: "s3cret",
	}
}

func TestRegister(t *testing.T) {
	t.Run("CreatesUserAndAccount", func(t *testing.T) {
		svc, store := setupService(t)

		user, err := svc.Register(context.Background(), validRequest())

		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.NotEqual(t, "s3cret", user.PasswordHash)
		account, err := store.GetAccount(context.Background(), user.ID)
		require.NoError(t, err)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		svc, store := setupService(t)
		_, err := svc.Register(context.Background(), validRequest())
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), validRequest())

		assert.ErrorIs(t, err, ErrUsernameTaken)
		users, err := store.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("Validation", func(t *testing.T) {
		svc, _ := setupService(t)

		missing := validRequest()
		missing.LastName = "  "
		_, err := svc.Register(context.Background(), missing)
		assert.ErrorIs(t, err, ErrMissingFields)

		mismatch := validRequest()
		mismatch.Confirmation = "other"
		_, err = svc.Register(context.Background(), mismatch)
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := setupService(t)
	registered, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "ada", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Login(context.Background(), "ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestProfile(t *testing.T) {
	svc, _ := setupService(t)
	registered, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	user, account, err := svc.Profile(context.Background(), registered.ID)

	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))

	_, _, err = svc.Profile(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
