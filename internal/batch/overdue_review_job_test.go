package batch

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/memory"
)

func seedLoan(t *testing.T, repo *memory.LoanRepository, id string, status loan.Status, balance decimal.Decimal, createdAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &loan.Loan{
		ID:               id,
		CustomerID:       "cust-1",
		ProductCode:      "REGULAR",
		Principal:        decimal.NewFromInt(1000),
		RatePercent:      decimal.NewFromInt(3),
		TermWeeks:        4,
		Status:           status,
		RemainingBalance: balance,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}))
}

func TestOverdueReviewJob_Run(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewLoanRepository()
	auditRepo := memory.NewAuditRepository()
	recorder := audit.NewRecorder(auditRepo, logger)

	now := time.Now().UTC()
	pastTerm := now.AddDate(0, 0, -60) // well past a 4-week term

	seedLoan(t, repo, "loan-overdue", loan.StatusActive, decimal.NewFromInt(400), pastTerm)
	seedLoan(t, repo, "loan-current", loan.StatusActive, decimal.NewFromInt(400), now)
	seedLoan(t, repo, "loan-settled-late", loan.StatusPaid, decimal.Zero, pastTerm)
	seedLoan(t, repo, "loan-pending-old", loan.StatusPending, decimal.NewFromInt(400), pastTerm)

	job := NewOverdueReviewJob(repo, recorder, logger)
	require.NoError(t, job.Run(ctx))
	recorder.Close()

	// Only the overdue active loan is flagged, in the audit trail.
	entries, err := auditRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.Contains(entries[0].Action, "loan-overdue"), "action: %s", entries[0].Action)

	// Flagging never mutates the loan itself.
	flagged, err := repo.GetByID(ctx, "loan-overdue")
	require.NoError(t, err)
	assert.Equal(t, loan.StatusActive, flagged.Status)
	assert.True(t, flagged.RemainingBalance.Equal(decimal.NewFromInt(400)))
}

func TestOverdueReviewJob_Run_HonorsCancellation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewLoanRepository()
	recorder := audit.NewRecorder(memory.NewAuditRepository(), logger)
	defer recorder.Close()

	pastTerm := time.Now().UTC().AddDate(0, 0, -60)
	seedLoan(t, repo, "loan-1", loan.StatusActive, decimal.NewFromInt(400), pastTerm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewOverdueReviewJob(repo, recorder, logger).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
