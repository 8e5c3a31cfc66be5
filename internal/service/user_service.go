package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockwave/internal/domain"
	"stockwave/internal/repository"
	"stockwave/internal/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// MinPasswordLength is the shortest password accepted at registration
	MinPasswordLength = 6
)

// UserService defines the interface for account and onboarding logic
type UserService interface {
	Register(ctx context.Context, email, password string, name *string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	CompleteOnboarding(ctx context.Context, userID uuid.UUID, storeName, niche *string) (*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	sessions *session.Maker
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, sessions *session.Maker) UserService {
	return &userService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Register creates a new user account with hashed password
func (s *userService) Register(ctx context.Context, email, password string, name *string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, repository.ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         optionalString(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login checks the credentials and issues a session token
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return token, user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CompleteOnboarding overwrites the store profile. Blank values clear the field.
func (s *userService) CompleteOnboarding(ctx context.Context, userID uuid.UUID, storeName, niche *string) (*domain.User, error) {
	user, err := s.userRepo.UpdateOnboarding(ctx, userID, optionalString(storeName), optionalString(niche), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to complete onboarding: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// optionalString trims s and maps blank input to nil
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
