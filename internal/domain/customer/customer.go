package customer

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusDisabled Status = "Disabled"
)

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Reference string    `json:"reference"`
	Status    Status    `json:"status"`
	JoinedAt  time.Time `json:"joinedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewCustomer(name, email, phone, address, reference string) *Customer {
	now := time.Now().UTC()
	return &Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Address:   address,
		Reference: reference,
		Status:    StatusActive,
		JoinedAt:  now,
		UpdatedAt: now,
	}
}

// Active reports whether the customer may be the subject of a new loan.
func (c *Customer) Active() bool {
	return c.Status == StatusActive
}

// ToggleStatus flips between Active and Disabled. Existing loans are left
// untouched by design; disabling only blocks new loans.
func (c *Customer) ToggleStatus() {
	if c.Status == StatusActive {
		c.Status = StatusDisabled
	} else {
		c.Status = StatusActive
	}
	c.UpdatedAt = time.Now().UTC()
}
