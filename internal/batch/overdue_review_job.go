package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
)

// OverdueReviewJob scans active loans that are past their term with a balance
// still outstanding and flags them for administrative review. It never
// mutates loan state: marking a loan Defaulted stays a human decision.
type OverdueReviewJob struct {
	repo     loan.Repository
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewOverdueReviewJob(repo loan.Repository, recorder *audit.Recorder, logger *slog.Logger) *OverdueReviewJob {
	return &OverdueReviewJob{
		repo:     repo,
		recorder: recorder,
		logger:   logger.With("component", "OverdueReviewJob"),
	}
}

func (j *OverdueReviewJob) Run(ctx context.Context) error {
	j.logger.Info("Starting overdue loan review")

	active, err := j.repo.ListByStatus(ctx, loan.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to list active loans: %w", err)
	}

	now := time.Now().UTC()
	overdue := 0
	for _, l := range active {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		termEnd := l.CreatedAt.AddDate(0, 0, l.TermWeeks*7)
		if now.Before(termEnd) || l.RemainingBalance.IsZero() {
			continue
		}

		overdue++
		j.logger.Warn("Loan past term with outstanding balance",
			"loanID", l.ID,
			"customerID", l.CustomerID,
			"remainingBalance", l.RemainingBalance,
			"termEnded", termEnd,
		)
		j.recorder.Record(ctx, "Flagged loan #%s for review: past term with ₱%s outstanding",
			l.ID, l.RemainingBalance.StringFixed(2))
	}

	monitoring.Business.OverdueLoansGauge.Set(float64(overdue))
	j.logger.Info("Overdue loan review finished", "active_loans", len(active), "flagged", overdue)
	return nil
}
