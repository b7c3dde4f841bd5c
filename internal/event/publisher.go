package event

import (
	"context"
	"time"
)

const (
	routingKeyLoanApproved    = "loan.approved"
	routingKeyPaymentRecorded = "payment.recorded"
	publisherAppID            = "lending-engine"
)

type LoanApprovedEvent struct {
	LoanID     string    `json:"loanId"`
	CustomerID string    `json:"customerId"`
	Timestamp  time.Time `json:"timestamp"`
}

type PaymentRecordedEvent struct {
	TransactionID    string    `json:"transactionId"`
	LoanID           string    `json:"loanId"`
	Amount           string    `json:"amount"`
	RemainingBalance string    `json:"remainingBalance"`
	LoanStatus       string    `json:"loanStatus"`
	ProcessedBy      string    `json:"processedBy"`
	Timestamp        time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishLoanApproved(ctx context.Context, event LoanApprovedEvent) error
	PublishPaymentRecorded(ctx context.Context, event PaymentRecordedEvent) error
}

// NoopPublisher is used when event publishing is disabled in configuration.
type NoopPublisher struct{}

func (NoopPublisher) PublishLoanApproved(context.Context, LoanApprovedEvent) error {
	return nil
}

func (NoopPublisher) PublishPaymentRecorded(context.Context, PaymentRecordedEvent) error {
	return nil
}
