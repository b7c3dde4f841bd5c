package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/pkg/apperrors"
)

type Service interface {
	Create(ctx context.Context, name, email, phone, address, reference string) (*Customer, error)

	Get(ctx context.Context, customerID string) (*Customer, error)

	List(ctx context.Context) ([]*Customer, error)

	Update(ctx context.Context, customerID string, updates UpdateInput) (*Customer, error)

	ToggleStatus(ctx context.Context, customerID string) (*Customer, error)
}

// UpdateInput carries optional field changes; nil means leave unchanged.
type UpdateInput struct {
	Name      *string
	Email     *string
	Phone     *string
	Address   *string
	Reference *string
}

var _ Service = (*service)(nil)

type service struct {
	repo     Repository
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(repo Repository, recorder *audit.Recorder, logger *slog.Logger) Service {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	return &service{
		repo:     repo,
		recorder: recorder,
		logger:   logger.With("component", "CustomerService"),
	}
}

func (s *service) Create(ctx context.Context, name, email, phone, address, reference string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}
	if strings.TrimSpace(reference) == "" {
		return nil, apperrors.NewValidationError("reference", "at least one reference is required")
	}

	cust := NewCustomer(name, strings.TrimSpace(email), strings.TrimSpace(phone), strings.TrimSpace(address), strings.TrimSpace(reference))
	if err := s.repo.Create(ctx, cust); err != nil {
		s.logger.Error("Failed to persist customer", "error", err)
		return nil, fmt.Errorf("%w: failed to save customer: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Registered new customer: %s", cust.Name)
	s.logger.Info("Customer created", "customerID", cust.ID)
	return cust, nil
}

func (s *service) Get(ctx context.Context, customerID string) (*Customer, error) {
	cust, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %s not found", apperrors.ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("%w: failed to get customer: %v", apperrors.ErrInternalServer, err)
	}
	return cust, nil
}

func (s *service) List(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list customers: %v", apperrors.ErrInternalServer, err)
	}
	return customers, nil
}

func (s *service) Update(ctx context.Context, customerID string, updates UpdateInput) (*Customer, error) {
	cust, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		if strings.TrimSpace(*updates.Name) == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
		cust.Name = strings.TrimSpace(*updates.Name)
	}
	if updates.Email != nil {
		cust.Email = strings.TrimSpace(*updates.Email)
	}
	if updates.Phone != nil {
		cust.Phone = strings.TrimSpace(*updates.Phone)
	}
	if updates.Address != nil {
		cust.Address = strings.TrimSpace(*updates.Address)
	}
	if updates.Reference != nil {
		if strings.TrimSpace(*updates.Reference) == "" {
			return nil, apperrors.NewValidationError("reference", "at least one reference is required")
		}
		cust.Reference = strings.TrimSpace(*updates.Reference)
	}

	if err := s.repo.Update(ctx, cust); err != nil {
		s.logger.Error("Failed to update customer", "customerID", customerID, "error", err)
		return nil, fmt.Errorf("%w: failed to update customer: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Updated customer profile: %s", cust.Name)
	return cust, nil
}

// ToggleStatus flips the customer between Active and Disabled. Loans already
// held by a newly disabled customer are deliberately left untouched; the flip
// only affects eligibility for new loans.
func (s *service) ToggleStatus(ctx context.Context, customerID string) (*Customer, error) {
	cust, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cust.ToggleStatus()
	if err := s.repo.Update(ctx, cust); err != nil {
		s.logger.Error("Failed to update customer status", "customerID", customerID, "error", err)
		return nil, fmt.Errorf("%w: failed to update customer status: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Changed customer %s status to %s", cust.Name, cust.Status)
	s.logger.Info("Customer status toggled", "customerID", customerID, "status", cust.Status)
	return cust, nil
}
