package dto

import (
	"time"

	"lending-engine/internal/domain/customer"
)

type CreateCustomerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Reference string `json:"reference"`
}

type UpdateCustomerRequest struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Reference *string `json:"reference,omitempty"`
}

type CustomerResponse struct {
	CustomerID string    `json:"customerId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Reference  string    `json:"reference"`
	Status     string    `json:"status"`
	JoinedAt   time.Time `json:"joinedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		CustomerID: c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		Reference:  c.Reference,
		Status:     string(c.Status),
		JoinedAt:   c.JoinedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

type ActiveLoanResponse struct {
	HasActiveLoan bool `json:"hasActiveLoan"`
}
