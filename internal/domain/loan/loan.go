package loan

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lending-engine/internal/domain/pricing"
	"lending-engine/internal/pkg/apperrors"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusActive    Status = "Active"
	StatusPaid      Status = "Paid"
	StatusDefaulted Status = "Defaulted"
)

// Loan is a priced application against a product. Principal is the full debt;
// NetProceeds is what the borrower actually receives after the origination
// fee. RemainingBalance stays within [0, Principal] and reaches zero exactly
// when the status flips to Paid.
type Loan struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customerId"`
	ProductCode      string          `json:"productCode"`
	Principal        decimal.Decimal `json:"principal"`
	NetProceeds      decimal.Decimal `json:"netProceeds"`
	OriginationFee   decimal.Decimal `json:"originationFee"`
	RatePercent      decimal.Decimal `json:"ratePercent"`
	TermWeeks        int             `json:"termWeeks"`
	Status           Status          `json:"status"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewLoan validates terms against the product and prices the application.
// The loan starts Pending with the full principal outstanding.
func NewLoan(customerID string, product pricing.Product, principal decimal.Decimal, termWeeks int) (*Loan, error) {
	if !principal.IsPositive() {
		return nil, apperrors.NewValidationError("principal", "principal must be positive")
	}
	if principal.GreaterThan(product.PrincipalCap) {
		return nil, apperrors.NewValidationError("principal",
			fmt.Sprintf("maximum amount for %s is %s", product.Label, product.PrincipalCap.StringFixed(2)))
	}
	if termWeeks <= 0 {
		return nil, apperrors.NewValidationError("termWeeks", "term must be at least one period")
	}

	fee := product.OriginationFee(principal)
	now := time.Now().UTC()
	return &Loan{
		ID:               uuid.NewString(),
		CustomerID:       customerID,
		ProductCode:      product.Code,
		Principal:        principal,
		NetProceeds:      principal.Sub(fee),
		OriginationFee:   fee,
		RatePercent:      product.RatePercent,
		TermWeeks:        termWeeks,
		Status:           StatusPending,
		RemainingBalance: principal,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Approve transitions Pending -> Active.
func (l *Loan) Approve() error {
	if l.Status != StatusPending {
		return fmt.Errorf("%w: loan is %s, only Pending loans can be approved", apperrors.ErrInvalidState, l.Status)
	}
	l.Status = StatusActive
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkDefaulted transitions Active -> Defaulted. This is an administrative
// action; nothing in the engine triggers it automatically.
func (l *Loan) MarkDefaulted() error {
	if l.Status != StatusActive {
		return fmt.Errorf("%w: loan is %s, only Active loans can be marked defaulted", apperrors.ErrInvalidState, l.Status)
	}
	l.Status = StatusDefaulted
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// applyAmount decrements the balance and flips the loan to Paid when the
// balance reaches exactly zero. The balance can never go negative: paying
// more than the outstanding amount is rejected outright.
func (l *Loan) applyAmount(amount decimal.Decimal) error {
	if l.Status != StatusActive {
		return fmt.Errorf("%w: loan is %s, payments are only accepted on Active loans", apperrors.ErrInvalidState, l.Status)
	}
	if !amount.IsPositive() {
		return apperrors.NewValidationError("amount", "payment amount must be positive")
	}
	if amount.GreaterThan(l.RemainingBalance) {
		return apperrors.NewValidationError("amount",
			fmt.Sprintf("payment of %s exceeds remaining balance of %s", amount.StringFixed(2), l.RemainingBalance.StringFixed(2)))
	}

	l.RemainingBalance = l.RemainingBalance.Sub(amount)
	if l.RemainingBalance.IsZero() {
		l.Status = StatusPaid
	}
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (l *Loan) clone() *Loan {
	c := *l
	return &c
}
