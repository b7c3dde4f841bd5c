package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one successful payment against a loan. Transactions are
// created exactly once and never mutated or deleted; the sum of a loan's
// transactions equals principal minus remaining balance.
type Transaction struct {
	ID          string          `json:"id"`
	LoanID      string          `json:"loanId"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurredAt"`
	ProcessedBy string          `json:"processedBy"`
}

func NewTransaction(loanID string, amount decimal.Decimal, staffID string) *Transaction {
	return &Transaction{
		ID:          uuid.NewString(),
		LoanID:      loanID,
		Amount:      amount,
		OccurredAt:  time.Now().UTC(),
		ProcessedBy: staffID,
	}
}
