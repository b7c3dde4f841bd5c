package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
)

// TransactionRepository only ever inserts. There is no update or
// delete path; the transactions table is the book of record.
type TransactionRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ ledger.Repository = (*TransactionRepository)(nil)

func NewTransactionRepository(db DBPool, logger *slog.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger.With("component", "TransactionRepository")}
}

func (r *TransactionRepository) Append(ctx context.Context, txn *ledger.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}

	sql := `
        INSERT INTO transactions (id, loan_id, amount, occurred_at, processed_by)
        VALUES ($1, $2, $3, $4, $5)`

	start := time.Now()
	_, err := r.db.Exec(ctx, sql, txn.ID, txn.LoanID, txn.Amount, txn.OccurredAt, txn.ProcessedBy)
	monitoring.RecordDBQuery("AppendTransaction", queryStatus(err), time.Since(start))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert transaction", "transaction_id", txn.ID, "loan_id", txn.LoanID, "error", err)
		return translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Transaction appended in DB", "transaction_id", txn.ID, "loan_id", txn.LoanID)
	return nil
}

func (r *TransactionRepository) ListByLoan(ctx context.Context, loanID string) ([]*ledger.Transaction, error) {
	query := `
        SELECT id, loan_id, amount::text, occurred_at, processed_by
        FROM transactions
        WHERE loan_id = $1
        ORDER BY occurred_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query transactions", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	txns := make([]*ledger.Transaction, 0)
	for rows.Next() {
		var t ledger.Transaction
		if err := rows.Scan(&t.ID, &t.LoanID, &t.Amount, &t.OccurredAt, &t.ProcessedBy); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan transaction row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		txns = append(txns, &t)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating transaction rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return txns, nil
}
