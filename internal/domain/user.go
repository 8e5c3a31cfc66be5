package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a store owner account
type User struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Email               string     `json:"email" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Name                *string    `json:"name" db:"name"`
	StoreName           *string    `json:"storeName" db:"store_name"`
	Niche               *string    `json:"niche" db:"niche"`
	OnboardingCompleted bool       `json:"onboardingCompleted" db:"onboarding_completed"`
	CurrentPlanID       *string    `json:"currentPlanId" db:"current_plan_id"`
	PlanExpiresAt       *time.Time `json:"planExpiresAt" db:"plan_expires_at"`
	CreatedAt           time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time  `json:"updatedAt" db:"updated_at"`
}
