package service

import (
	"context"
	"testing"
	"time"

	"stockwave/internal/repository"
	"stockwave/internal/session"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService() (UserService, *mockUserRepository, *session.Maker) {
	repo := newMockUserRepository()
	maker := session.NewMaker("test-secret", time.Hour)
	return NewUserService(repo, maker), repo, maker
}

// Property: registration never stores the plaintext password
func TestProperty_RegistrationCreatesHashedPasswords(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(email string, password string) bool {
			service, _, _ := newTestUserService()

			user, err := service.Register(context.Background(), email, password, nil)
			if err != nil {
				t.Logf("FAIL: registration failed: %v", err)
				return false
			}

			if user.PasswordHash == password {
				t.Logf("FAIL: Password stored as plaintext for email %s", email)
				return false
			}

			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
				t.Logf("FAIL: Password hash is not a valid bcrypt hash or doesn't match: %v", err)
				return false
			}

			cost, err := bcrypt.Cost([]byte(user.PasswordHash))
			return err == nil && cost == BcryptCost
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{6,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserService_RegisterRejectsDuplicateEmail(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "owner@example.com", "secret1", nil)
	require.NoError(t, err)

	_, err = service.Register(ctx, "  OWNER@example.com ", "secret2", nil)
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
}

func TestUserService_RegisterValidatesInput(t *testing.T) {
	service, _, _ := newTestUserService()

	_, err := service.Register(context.Background(), "owner@example.com", "12345", nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "password", validationErr.Field)

	_, err = service.Register(context.Background(), "  ", "123456", nil)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email", validationErr.Field)
}

func TestUserService_LoginIssuesSessionToken(t *testing.T) {
	service, _, maker := newTestUserService()
	ctx := context.Background()

	name := " Ana "
	registered, err := service.Register(ctx, "ana@example.com", "correct-horse", &name)
	require.NoError(t, err)
	require.NotNil(t, registered.Name)
	assert.Equal(t, "Ana", *registered.Name)

	token, user, err := service.Login(ctx, "ana@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := maker.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
}

func TestUserService_LoginRejectsBadCredentials(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	_, err := service.Register(ctx, "ana@example.com", "correct-horse", nil)
	require.NoError(t, err)

	_, _, err = service.Login(ctx, "ana@example.com", "wrong-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_CompleteOnboardingIsIdempotent(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	user, err := service.Register(ctx, "ana@example.com", "correct-horse", nil)
	require.NoError(t, err)

	store, niche := "Loja da Ana", "  "
	updated, err := service.CompleteOnboarding(ctx, user.ID, &store, &niche)
	require.NoError(t, err)
	assert.True(t, updated.OnboardingCompleted)
	require.NotNil(t, updated.StoreName)
	assert.Equal(t, store, *updated.StoreName)
	assert.Nil(t, updated.Niche)

	again, err := service.CompleteOnboarding(ctx, user.ID, &store, &niche)
	require.NoError(t, err)
	assert.True(t, again.OnboardingCompleted)
	assert.Equal(t, store, *again.StoreName)

	_, err = service.CompleteOnboarding(ctx, uuid.New(), &store, nil)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserService_GetUserByID(t *testing.T) {
	service, _, _ := newTestUserService()
	ctx := context.Background()

	user, err := service.Register(ctx, "ana@example.com", "correct-horse", nil)
	require.NoError(t, err)

	found, err := service.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", found.Email)

	_, err = service.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
