package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const pgxmockExpectationsNotMetMsg = "pgxmock expectations not met"

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	t.Cleanup(mockPool.Close)
	return context.Background(), NewLoanRepository(mockPool, testLogger), mockPool
}

func fixtureLoan() *loan.Loan {
	now := time.Now().UTC()
	return &loan.Loan{
		ID:               "loan-1",
		CustomerID:       "cust-1",
		ProductCode:      "REGULAR",
		Principal:        decimal.NewFromInt(25000),
		NetProceeds:      decimal.NewFromInt(25000),
		OriginationFee:   decimal.Zero,
		RatePercent:      decimal.NewFromInt(3),
		TermWeeks:        12,
		Status:           loan.StatusPending,
		RemainingBalance: decimal.NewFromInt(25000),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func loanRows(l *loan.Loan) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "customer_id", "product_code", "principal", "net_proceeds",
		"origination_fee", "rate_percent", "term_weeks", "status", "remaining_balance",
		"created_at", "updated_at",
	}).AddRow(
		l.ID, l.CustomerID, l.ProductCode, l.Principal.String(), l.NetProceeds.String(),
		l.OriginationFee.String(), l.RatePercent.String(), l.TermWeeks, string(l.Status), l.RemainingBalance.String(),
		l.CreatedAt, l.UpdatedAt,
	)
}

func TestLoanRepository_Create(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	l := fixtureLoan()

	t.Run("successful insert", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO loans")).
			WithArgs(
				l.ID, l.CustomerID, l.ProductCode, l.Principal, l.NetProceeds, l.OriginationFee,
				l.RatePercent, l.TermWeeks, l.Status, l.RemainingBalance, l.CreatedAt, l.UpdatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, l)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("duplicate key maps to conflict", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO loans")).
			WithArgs(
				l.ID, l.CustomerID, l.ProductCode, l.Principal, l.NetProceeds, l.OriginationFee,
				l.RatePercent, l.TermWeeks, l.Status, l.RemainingBalance, l.CreatedAt, l.UpdatedAt,
			).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, l)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}

func TestLoanRepository_GetByID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	l := fixtureLoan()

	t.Run("found", func(t *testing.T) {
		mockPool.ExpectQuery("SELECT (.+) FROM loans WHERE id = \\$1").
			WithArgs(l.ID).
			WillReturnRows(loanRows(l))

		got, err := repo.GetByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
		assert.Equal(t, loan.StatusPending, got.Status)
		assert.True(t, got.Principal.Equal(decimal.NewFromInt(25000)), "principal %s", got.Principal)
		assert.True(t, got.RatePercent.Equal(decimal.NewFromInt(3)))
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mockPool.ExpectQuery("SELECT (.+) FROM loans WHERE id = \\$1").
			WithArgs("no-such-loan").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, "no-such-loan")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}

func TestLoanRepository_Update(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	l := fixtureLoan()

	t.Run("successful update", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE loans")).
			WithArgs(
				l.ProductCode, l.Principal, l.NetProceeds, l.OriginationFee,
				l.RatePercent, l.TermWeeks, l.Status, l.RemainingBalance, l.UpdatedAt, l.ID,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Update(ctx, l)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("zero rows affected maps to not found", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE loans")).
			WithArgs(
				l.ProductCode, l.Principal, l.NetProceeds, l.OriginationFee,
				l.RatePercent, l.TermWeeks, l.Status, l.RemainingBalance, l.UpdatedAt, l.ID,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, l)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}

func TestLoanRepository_ListByStatus(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	l := fixtureLoan()

	mockPool.ExpectQuery("SELECT (.+) FROM loans WHERE status = \\$1").
		WithArgs(string(loan.StatusPending)).
		WillReturnRows(loanRows(l))

	loans, err := repo.ListByStatus(ctx, loan.StatusPending)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, l.ID, loans[0].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestLoanRepository_List_QueryError(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)

	mockPool.ExpectQuery("SELECT (.+) FROM loans ORDER BY created_at, id").
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.List(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDatabase))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
