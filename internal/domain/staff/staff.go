package staff

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleOfficer Role = "officer"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficer, RoleCashier:
		return true
	}
	return false
}

type AccountStatus string

const (
	StatusActive   AccountStatus = "Active"
	StatusDisabled AccountStatus = "Disabled"
)

// Account is a staff login. PasswordHash is a bcrypt hash; the plaintext is
// never stored.
type Account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func NewAccount(name, email, passwordHash string, role Role) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Identity is the authenticated caller carried on the request context.
type Identity struct {
	StaffID string
	Name    string
	Email   string
	Role    Role
}

type ctxKey string

const identityKey ctxKey = "staff_identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
