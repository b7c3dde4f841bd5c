package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"lending-engine/internal/domain/staff"
	"lending-engine/internal/pkg/apperrors"
)

const staffColumns = `id, name, email, password_hash, role, status, created_at, updated_at`

type StaffRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ staff.Repository = (*StaffRepository)(nil)

func NewStaffRepository(db DBPool, logger *slog.Logger) *StaffRepository {
	return &StaffRepository{db: db, logger: logger.With("component", "StaffRepository")}
}

func (r *StaffRepository) Create(ctx context.Context, a *staff.Account) error {
	sql := `
        INSERT INTO staff_accounts (id, name, email, password_hash, role, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, sql,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert staff account", "staff_id", a.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Staff account created in DB", "staff_id", a.ID)
	return nil
}

func (r *StaffRepository) GetByID(ctx context.Context, id string) (*staff.Account, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_accounts WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*staff.Account, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_accounts WHERE lower(email) = lower($1)`
	return r.scanOne(ctx, query, email)
}

func (r *StaffRepository) scanOne(ctx context.Context, query string, arg any) (*staff.Account, error) {
	var a staff.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get staff account", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &a, nil
}

func (r *StaffRepository) Update(ctx context.Context, a *staff.Account) error {
	sql := `
        UPDATE staff_accounts
        SET name = $1, email = $2, password_hash = $3, role = $4, status = $5, updated_at = $6
        WHERE id = $7`

	cmdTag, err := r.db.Exec(ctx, sql,
		a.Name, a.Email, a.PasswordHash, a.Role, a.Status, a.UpdatedAt, a.ID,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update staff account", "staff_id", a.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Staff account update affected zero rows", "staff_id", a.ID)
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM staff_accounts WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete staff account", "staff_id", id, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Staff account deleted from DB", "staff_id", id)
	return nil
}

func (r *StaffRepository) List(ctx context.Context) ([]*staff.Account, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_accounts ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query staff accounts", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	accounts := make([]*staff.Account, 0)
	for rows.Next() {
		var a staff.Account
		err := rows.Scan(
			&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan staff row", "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		accounts = append(accounts, &a)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating staff rows", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return accounts, nil
}

func (r *StaffRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM staff_accounts`).Scan(&count)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count staff accounts", "error", err)
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return count, nil
}
