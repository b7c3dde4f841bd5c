package staff

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
	Authenticate(ctx context.Context, email, password string) (*Account, error)

	Create(ctx context.Context, name, email, password string, role Role) (*Account, error)

	Update(ctx context.Context, accountID string, updates UpdateInput) (*Account, error)

	Delete(ctx context.Context, accountID string) error

	ToggleStatus(ctx context.Context, accountID string) (*Account, error)

	Get(ctx context.Context, accountID string) (*Account, error)

	List(ctx context.Context) ([]*Account, error)

	SeedAdmin(ctx context.Context, name, email, password string) error
}

// UpdateInput carries optional field changes; nil means leave unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Role     *Role
	Password *string
}

var _ Service = (*service)(nil)

type service struct {
	repo     Repository
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewService(repo Repository, recorder *audit.Recorder, logger *slog.Logger) Service {
	if repo == nil {
		panic("staff repository cannot be nil")
	}
	return &service{
		repo:     repo,
		recorder: recorder,
		logger:   logger.With("component", "StaffService"),
	}
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown email")
			return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: failed to look up account: %v", apperrors.ErrInternalServer, err)
	}
	if account.Status != StatusActive {
		s.logger.Warn("Login attempt for disabled account", "staffID", account.ID)
		return nil, fmt.Errorf("%w: account is disabled", apperrors.ErrUnauthorized)
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		s.logger.Warn("Login attempt with wrong password", "staffID", account.ID)
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}
	s.logger.Info("Staff authenticated", "staffID", account.ID, "role", account.Role)
	return account, nil
}

func (s *service) Create(ctx context.Context, name, email, password string, role Role) (*Account, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name cannot be empty")
	}
	if email == "" {
		return nil, apperrors.NewValidationError("email", "email cannot be empty")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		s.logger.Warn("Attempted to create staff account with duplicate email")
		return nil, fmt.Errorf("%w: email %s already exists", apperrors.ErrConflict, email)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: failed to check email uniqueness: %v", apperrors.ErrInternalServer, err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperrors.NewValidationError("password", "password cannot be empty")
	}

	account := NewAccount(name, email, hash, role)
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: email %s already exists", apperrors.ErrConflict, email)
		}
		s.logger.Error("Failed to persist staff account", "error", err)
		return nil, fmt.Errorf("%w: failed to save staff account: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Created staff account: %s (%s)", account.Email, account.Role)
	s.logger.Info("Staff account created", "staffID", account.ID, "role", account.Role)
	return account, nil
}

func (s *service) Update(ctx context.Context, accountID string, updates UpdateInput) (*Account, error) {
	account, err := s.getExisting(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if updates.Name != nil {
		if strings.TrimSpace(*updates.Name) == "" {
			return nil, apperrors.NewValidationError("name", "name cannot be empty")
		}
		account.Name = strings.TrimSpace(*updates.Name)
	}
	if updates.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*updates.Email))
		if email == "" {
			return nil, apperrors.NewValidationError("email", "email cannot be empty")
		}
		if email != account.Email {
			if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil && existing.ID != accountID {
				return nil, fmt.Errorf("%w: email %s already exists", apperrors.ErrConflict, email)
			} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: failed to check email uniqueness: %v", apperrors.ErrInternalServer, err)
			}
			account.Email = email
		}
	}
	if updates.Role != nil {
		if !updates.Role.Valid() {
			return nil, apperrors.NewValidationError("role", fmt.Sprintf("unknown role %q", *updates.Role))
		}
		account.Role = *updates.Role
	}
	if updates.Password != nil {
		hash, err := HashPassword(*updates.Password)
		if err != nil {
			return nil, apperrors.NewValidationError("password", "password cannot be empty")
		}
		account.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update staff account", "staffID", accountID, "error", err)
		return nil, fmt.Errorf("%w: failed to update staff account: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Updated staff account: %s", account.Email)
	return account, nil
}

func (s *service) Delete(ctx context.Context, accountID string) error {
	if id, ok := IdentityFromContext(ctx); ok && id.StaffID == accountID {
		s.logger.Warn("Staff attempted to delete own account", "staffID", accountID)
		return fmt.Errorf("%w: cannot delete your own account", apperrors.ErrForbidden)
	}

	account, err := s.getExisting(ctx, accountID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, accountID); err != nil {
		s.logger.Error("Failed to delete staff account", "staffID", accountID, "error", err)
		return fmt.Errorf("%w: failed to delete staff account: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Deleted staff account: %s", account.Email)
	s.logger.Info("Staff account deleted", "staffID", accountID)
	return nil
}

func (s *service) ToggleStatus(ctx context.Context, accountID string) (*Account, error) {
	account, err := s.getExisting(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Status == StatusActive {
		if id, ok := IdentityFromContext(ctx); ok && id.StaffID == accountID {
			s.logger.Warn("Staff attempted to disable own account", "staffID", accountID)
			return nil, fmt.Errorf("%w: cannot disable your own account", apperrors.ErrForbidden)
		}
		account.Status = StatusDisabled
	} else {
		account.Status = StatusActive
	}

	if err := s.repo.Update(ctx, account); err != nil {
		s.logger.Error("Failed to update staff status", "staffID", accountID, "error", err)
		return nil, fmt.Errorf("%w: failed to update staff status: %v", apperrors.ErrInternalServer, err)
	}

	s.recorder.Record(ctx, "Changed staff account %s status to %s", account.Email, account.Status)
	return account, nil
}

func (s *service) Get(ctx context.Context, accountID string) (*Account, error) {
	return s.getExisting(ctx, accountID)
}

func (s *service) List(ctx context.Context) ([]*Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list staff accounts: %v", apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// SeedAdmin bootstraps an initial admin account when the store is empty so a
// fresh deployment is reachable.
func (s *service) SeedAdmin(ctx context.Context, name, email, password string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to count staff accounts: %v", apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}
	if password == "" {
		s.logger.Warn("Staff store is empty and no seed admin password configured; skipping seed")
		return nil
	}
	if _, err := s.Create(ctx, name, email, password, RoleAdmin); err != nil {
		return err
	}
	s.logger.Info("Seeded initial admin account", "email", email)
	return nil
}

func (s *service) getExisting(ctx context.Context, accountID string) (*Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: staff account %s not found", apperrors.ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("%w: failed to get staff account: %v", apperrors.ErrInternalServer, err)
	}
	return account, nil
}
