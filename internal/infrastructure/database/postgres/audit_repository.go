package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/pkg/apperrors"
)

type AuditRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ audit.Repository = (*AuditRepository)(nil)

func NewAuditRepository(db DBPool, logger *slog.Logger) *AuditRepository {
	return &AuditRepository{db: db, logger: logger.With("component", "AuditRepository")}
}

func (r *AuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	sql := `INSERT INTO audit_log (id, actor, action, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, sql, entry.ID, entry.Actor, entry.Action, entry.Timestamp)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert audit entry", "entry_id", entry.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context) ([]audit.Entry, error) {
	// ULIDs sort lexicographically by creation time, so ordering by ID
	// breaks ties between entries sharing a timestamp.
	query := `SELECT id, actor, action, created_at FROM audit_log ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query audit log", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Timestamp); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan audit row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating audit rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return entries, nil
}
