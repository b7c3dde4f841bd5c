package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/customer"
	"lending-engine/internal/domain/pricing"
	"lending-engine/internal/domain/schedule"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

// Service is the loan registry: the sole owner of loan status and balance
// mutation. The ledger requests balance decrements through ApplyPayment and
// never writes loan state itself.
type Service interface {
	Create(ctx context.Context, customerID, productCode string, principal decimal.Decimal, termWeeks int) (*Loan, error)

	// HasActiveLoan is a precondition check for callers that want to warn
	// before stacking a second loan on one customer. Create never blocks on
	// it.
	HasActiveLoan(ctx context.Context, customerID string) (bool, error)

	Approve(ctx context.Context, loanID string) (*Loan, error)

	// ApplyPayment is the single authorized balance mutation path. The new
	// balance is persisted first and the onApplied hook runs afterwards,
	// still inside the loan's critical section, with the persisted state.
	// If the hook fails the previous balance is written back, so a hook
	// side effect can never survive without its balance write and vice
	// versa.
	ApplyPayment(ctx context.Context, loanID string, amount decimal.Decimal, onApplied func(*Loan) error) (*Loan, error)

	EditTerms(ctx context.Context, loanID string, updates EditTermsInput) (*Loan, error)

	MarkDefaulted(ctx context.Context, loanID string) (*Loan, error)

	Get(ctx context.Context, loanID string) (*Loan, error)

	List(ctx context.Context) ([]*Loan, error)

	ScheduleFor(ctx context.Context, loanID string) ([]schedule.PeriodRow, error)
}

// EditTermsInput carries optional term changes; nil means leave unchanged.
type EditTermsInput struct {
	ProductCode *string
	Principal   *decimal.Decimal
	TermWeeks   *int
}

var _ Service = (*service)(nil)

type service struct {
	repo       Repository
	customers  customer.Service
	catalog    *pricing.Catalog
	calculator *schedule.Calculator
	recorder   *audit.Recorder
	pub        event.Publisher
	logger     *slog.Logger
	locks      keyedMutex
}

func NewService(repo Repository, customers customer.Service, catalog *pricing.Catalog, calculator *schedule.Calculator, recorder *audit.Recorder, pub event.Publisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	return &service{
		repo:       repo,
		customers:  customers,
		catalog:    catalog,
		calculator: calculator,
		recorder:   recorder,
		pub:        pub,
		logger:     logger.With("component", "LoanService"),
	}
}

func (s *service) Create(ctx context.Context, customerID, productCode string, principal decimal.Decimal, termWeeks int) (*Loan, error) {
	s.logger.Info("Creating new loan", "customerID", customerID, "product", productCode)

	cust, err := s.customers.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %s not found", apperrors.ErrValidation, customerID)
		}
		return nil, fmt.Errorf("failed to verify customer status: %w", err)
	}
	if !cust.Active() {
		s.logger.Warn("Attempted to create loan for disabled customer", "customerID", customerID)
		return nil, fmt.Errorf("%w: customer %s is disabled", apperrors.ErrValidation, customerID)
	}

	product, err := s.catalog.Get(productCode)
	if err != nil {
		return nil, err
	}

	newLoan, err := NewLoan(customerID, product, principal, termWeeks)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, newLoan); err != nil {
		s.logger.Error("Failed to persist loan", "error", err)
		return nil, fmt.Errorf("%w: failed to save loan: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordLoanCreated(product.Code)
	s.recorder.Record(ctx, "Created loan application for ₱%s (%s, customer %s)",
		newLoan.Principal.StringFixed(2), product.Label, cust.Name)
	s.logger.Info("Loan created", "loanID", newLoan.ID, "customerID", customerID, "netProceeds", newLoan.NetProceeds)
	return newLoan, nil
}

func (s *service) HasActiveLoan(ctx context.Context, customerID string) (bool, error) {
	loans, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return false, fmt.Errorf("%w: failed to list loans for customer %s: %v", apperrors.ErrInternalServer, customerID, err)
	}
	for _, l := range loans {
		if l.Status == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) Approve(ctx context.Context, loanID string) (*Loan, error) {
	unlock := s.locks.lock(loanID)
	defer unlock()

	l, err := s.getExisting(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := l.Approve(); err != nil {
		s.logger.Warn("Loan approval rejected", "loanID", loanID, "status", l.Status)
		return nil, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.Error("Failed to persist loan approval", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to update loan: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordLoanApproved()
	s.recorder.Record(ctx, "Approved loan #%s", l.ID)
	if err := s.pub.PublishLoanApproved(ctx, event.LoanApprovedEvent{
		LoanID:     l.ID,
		CustomerID: l.CustomerID,
		Timestamp:  l.UpdatedAt,
	}); err != nil {
		s.logger.Warn("Failed to publish loan approved event", "loanID", loanID, "error", err)
	}
	s.logger.Info("Loan approved", "loanID", loanID)
	return l, nil
}

func (s *service) ApplyPayment(ctx context.Context, loanID string, amount decimal.Decimal, onApplied func(*Loan) error) (*Loan, error) {
	unlock := s.locks.lock(loanID)
	defer unlock()

	current, err := s.getExisting(ctx, loanID)
	if err != nil {
		return nil, err
	}

	updated := current.clone()
	if err := updated.applyAmount(amount); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		s.logger.Error("Failed to persist payment", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to update loan balance: %v", apperrors.ErrInternalServer, err)
	}

	if onApplied != nil {
		if err := onApplied(updated); err != nil {
			s.logger.Error("Payment side effect failed, restoring previous balance", "loanID", loanID, "error", err)
			if restoreErr := s.repo.Update(ctx, current); restoreErr != nil {
				s.logger.Error("Failed to restore loan balance after side effect failure", "loanID", loanID, "error", restoreErr)
				return nil, fmt.Errorf("%w: failed to restore loan balance: %v", apperrors.ErrInternalServer, restoreErr)
			}
			return nil, err
		}
	}

	s.logger.Info("Payment applied", "loanID", loanID, "amount", amount, "remainingBalance", updated.RemainingBalance, "status", updated.Status)
	return updated, nil
}

// EditTerms is permitted only while a loan is Pending. Edits re-price the
// loan from scratch, so fee, net proceeds and balance can never drift from
// the edited principal.
func (s *service) EditTerms(ctx context.Context, loanID string, updates EditTermsInput) (*Loan, error) {
	unlock := s.locks.lock(loanID)
	defer unlock()

	l, err := s.getExisting(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status != StatusPending {
		return nil, fmt.Errorf("%w: loan is %s, terms can only be edited while Pending", apperrors.ErrInvalidState, l.Status)
	}

	productCode := l.ProductCode
	if updates.ProductCode != nil {
		productCode = *updates.ProductCode
	}
	principal := l.Principal
	if updates.Principal != nil {
		principal = *updates.Principal
	}
	termWeeks := l.TermWeeks
	if updates.TermWeeks != nil {
		termWeeks = *updates.TermWeeks
	}

	product, err := s.catalog.Get(productCode)
	if err != nil {
		return nil, err
	}

	repriced, err := NewLoan(l.CustomerID, product, principal, termWeeks)
	if err != nil {
		return nil, err
	}
	l.ProductCode = repriced.ProductCode
	l.Principal = repriced.Principal
	l.NetProceeds = repriced.NetProceeds
	l.OriginationFee = repriced.OriginationFee
	l.RatePercent = repriced.RatePercent
	l.TermWeeks = repriced.TermWeeks
	l.RemainingBalance = repriced.RemainingBalance
	l.UpdatedAt = repriced.UpdatedAt

	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.Error("Failed to persist loan edit", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to update loan: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Updated details for loan #%s", l.ID)
	s.logger.Info("Loan terms edited", "loanID", loanID)
	return l, nil
}

func (s *service) MarkDefaulted(ctx context.Context, loanID string) (*Loan, error) {
	unlock := s.locks.lock(loanID)
	defer unlock()

	l, err := s.getExisting(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := l.MarkDefaulted(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		s.logger.Error("Failed to persist loan default", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to update loan: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Marked loan #%s as Defaulted", l.ID)
	s.logger.Info("Loan marked defaulted", "loanID", loanID)
	return l, nil
}

func (s *service) Get(ctx context.Context, loanID string) (*Loan, error) {
	return s.getExisting(ctx, loanID)
}

func (s *service) List(ctx context.Context) ([]*Loan, error) {
	loans, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list loans: %v", apperrors.ErrInternalServer, err)
	}
	return loans, nil
}

func (s *service) ScheduleFor(ctx context.Context, loanID string) ([]schedule.PeriodRow, error) {
	l, err := s.getExisting(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return s.calculator.Build(l.Principal, l.RatePercent, l.TermWeeks, l.RatePercent.IsZero())
}

func (s *service) getExisting(ctx context.Context, loanID string) (*Loan, error) {
	l, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %s not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to get loan: %v", apperrors.ErrInternalServer, err)
	}
	return l, nil
}
