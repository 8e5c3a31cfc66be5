package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockwave/internal/domain"
	"stockwave/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FreePaymentMethod is recorded when a zero-price plan is taken without a method
const FreePaymentMethod = "free"

// BillingService defines the interface for plans and payments
type BillingService interface {
	ListActivePlans(ctx context.Context) ([]*domain.Plan, error)
	// PurchasePlan records a payment. Zero-price plans are paid and activated
	// at once; paid plans stay pending until confirmed elsewhere.
	PurchasePlan(ctx context.Context, userID uuid.UUID, planID string, method *string) (*domain.Payment, error)
	ListPayments(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error)
}

type billingService struct {
	planRepo    repository.PlanRepository
	paymentRepo repository.PaymentRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewBillingService creates a new instance of BillingService
func NewBillingService(planRepo repository.PlanRepository, paymentRepo repository.PaymentRepository, logger *zap.Logger) BillingService {
	return &billingService{
		planRepo:    planRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *billingService) ListActivePlans(ctx context.Context) ([]*domain.Plan, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *billingService) PurchasePlan(ctx context.Context, userID uuid.UUID, planID string, method *string) (*domain.Payment, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	now := s.now().UTC()
	payment := &domain.Payment{
		ID:            uuid.New(),
		UserID:        userID,
		PlanID:        plan.ID,
		Amount:        plan.Price,
		Status:        domain.PaymentStatusPending,
		PaymentMethod: optionalString(method),
		Metadata: domain.PaymentMetadata{
			PlanName:     plan.Name,
			PlanDuration: plan.Duration,
		},
		CreatedAt: now,
		Plan:      plan,
	}

	var activation *repository.PlanActivation
	if plan.IsFree() {
		payment.Status = domain.PaymentStatusPaid
		if payment.PaymentMethod == nil {
			free := FreePaymentMethod
			payment.PaymentMethod = &free
		}
		activation = &repository.PlanActivation{
			PlanID:    plan.ID,
			ExpiresAt: now.AddDate(0, 0, plan.Duration),
		}
	}

	if err := s.paymentRepo.Create(ctx, payment, activation); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("Payment recorded",
		zap.String("user_id", userID.String()),
		zap.String("plan_id", plan.ID),
		zap.String("status", string(payment.Status)),
	)

	return payment, nil
}

func (s *billingService) ListPayments(ctx context.Context, userID uuid.UUID) ([]*domain.Payment, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
