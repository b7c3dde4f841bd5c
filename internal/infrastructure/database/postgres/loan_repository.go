package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

// Numeric columns are cast to text in every SELECT so the decimal
// values scan losslessly instead of going through float64.
const loanColumns = `id, customer_id, product_code, principal::text, net_proceeds::text,
        origination_fee::text, rate_percent::text, term_weeks, status, remaining_balance::text,
        created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	sql := `
        INSERT INTO loans (id, customer_id, product_code, principal, net_proceeds, origination_fee,
            rate_percent, term_weeks, status, remaining_balance, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	start := time.Now()
	_, err := r.db.Exec(ctx, sql,
		l.ID, l.CustomerID, l.ProductCode, l.Principal, l.NetProceeds, l.OriginationFee,
		l.RatePercent, l.TermWeeks, l.Status, l.RemainingBalance, l.CreatedAt, l.UpdatedAt,
	)
	monitoring.RecordDBQuery("CreateLoan", queryStatus(err), time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "loan_id", l.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.ID)
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	start := time.Now()
	l, err := scanLoanRow(r.db.QueryRow(ctx, query, id))
	monitoring.RecordDBQuery("GetLoanByID", queryStatus(err), time.Since(start))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", id)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", id, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

// Update persists the full loan row. Writers are serialized per loan
// by the in-process lock in the loan service, so a plain row update is
// sufficient here.
func (r *LoanRepository) Update(ctx context.Context, l *loan.Loan) error {
	sql := `
        UPDATE loans
        SET product_code = $1, principal = $2, net_proceeds = $3, origination_fee = $4,
            rate_percent = $5, term_weeks = $6, status = $7, remaining_balance = $8, updated_at = $9
        WHERE id = $10`

	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, sql,
		l.ProductCode, l.Principal, l.NetProceeds, l.OriginationFee,
		l.RatePercent, l.TermWeeks, l.Status, l.RemainingBalance, l.UpdatedAt, l.ID,
	)
	monitoring.RecordDBQuery("UpdateLoan", queryStatus(err), time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan", "loan_id", l.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Loan update affected zero rows", "loan_id", l.ID)
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) List(ctx context.Context) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY created_at, id`
	return r.queryLoans(ctx, query)
}

func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID string) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY created_at, id`
	return r.queryLoans(ctx, query, customerID)
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status loan.Status) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 ORDER BY created_at, id`
	return r.queryLoans(ctx, query, string(status))
}

func (r *LoanRepository) queryLoans(ctx context.Context, query string, args ...any) ([]*loan.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoanRow(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func scanLoanRow(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.CustomerID, &l.ProductCode, &l.Principal, &l.NetProceeds,
		&l.OriginationFee, &l.RatePercent, &l.TermWeeks, &l.Status, &l.RemainingBalance,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func queryStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
