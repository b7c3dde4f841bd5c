package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

type Service interface {
	// RecordPayment applies a payment to the loan and appends the matching
	// transaction as one atomic unit: if either side fails, neither is
	// observable.
	RecordPayment(ctx context.Context, loanID string, amount decimal.Decimal, staffID string) (*Transaction, *loan.Loan, error)

	// TransactionsFor returns the payment history most-recent-first.
	TransactionsFor(ctx context.Context, loanID string) ([]*Transaction, error)
}

// PaymentApplier is the loan registry's payment-application contract; the
// ledger never writes loan state directly.
type PaymentApplier interface {
	ApplyPayment(ctx context.Context, loanID string, amount decimal.Decimal, onApplied func(*loan.Loan) error) (*loan.Loan, error)
}

var _ Service = (*service)(nil)

type service struct {
	repo     Repository
	loans    PaymentApplier
	recorder *audit.Recorder
	pub      event.Publisher
	logger   *slog.Logger
}

func NewService(repo Repository, loans PaymentApplier, recorder *audit.Recorder, pub event.Publisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("ledger repository cannot be nil")
	}
	if loans == nil {
		panic("payment applier cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	return &service{
		repo:     repo,
		loans:    loans,
		recorder: recorder,
		pub:      pub,
		logger:   logger.With("component", "LedgerService"),
	}
}

func (s *service) RecordPayment(ctx context.Context, loanID string, amount decimal.Decimal, staffID string) (txn *Transaction, updated *loan.Loan, err error) {
	s.logger.Info("Recording payment", "loanID", loanID, "amount", amount, "staffID", staffID)

	defer func() {
		switch {
		case err == nil:
			monitoring.RecordPayment("success")
		case errors.Is(err, apperrors.ErrValidation):
			monitoring.RecordPayment("failure_amount")
		case errors.Is(err, apperrors.ErrInvalidState):
			monitoring.RecordPayment("failure_state")
		case errors.Is(err, apperrors.ErrNotFound):
			monitoring.RecordPayment("failure_not_found")
		default:
			monitoring.RecordPayment("failure_internal")
		}
	}()

	txn = NewTransaction(loanID, amount, staffID)

	// The append runs inside the registry's critical section for this loan,
	// after the balance write lands: if the write fails the append never
	// runs, and if the append fails the balance is written back.
	updated, err = s.loans.ApplyPayment(ctx, loanID, amount, func(prospective *loan.Loan) error {
		if appendErr := s.repo.Append(ctx, txn); appendErr != nil {
			return fmt.Errorf("%w: failed to append transaction: %v", apperrors.ErrInternalServer, appendErr)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Payment rejected", "loanID", loanID, "amount", amount, "error", err)
		return nil, nil, err
	}

	s.recorder.Record(ctx, "Processed payment of ₱%s for loan #%s", amount.StringFixed(2), loanID)
	if pubErr := s.pub.PublishPaymentRecorded(ctx, event.PaymentRecordedEvent{
		TransactionID:    txn.ID,
		LoanID:           loanID,
		Amount:           amount.StringFixed(2),
		RemainingBalance: updated.RemainingBalance.StringFixed(2),
		LoanStatus:       string(updated.Status),
		ProcessedBy:      staffID,
		Timestamp:        txn.OccurredAt,
	}); pubErr != nil {
		s.logger.Warn("Failed to publish payment recorded event", "loanID", loanID, "error", pubErr)
	}

	s.logger.Info("Payment recorded", "loanID", loanID, "transactionID", txn.ID, "remainingBalance", updated.RemainingBalance)
	return txn, updated, nil
}

func (s *service) TransactionsFor(ctx context.Context, loanID string) ([]*Transaction, error) {
	txns, err := s.repo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list transactions for loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return txns, nil
}
