package dto

import (
	"time"

	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/domain/pricing"
	"lending-engine/internal/domain/schedule"
)

type CreateLoanRequest struct {
	CustomerID  string `json:"customerId"`
	ProductCode string `json:"productCode"`
	Principal   string `json:"principal"`
	TermWeeks   int    `json:"termWeeks"`
}

type EditLoanRequest struct {
	ProductCode *string `json:"productCode,omitempty"`
	Principal   *string `json:"principal,omitempty"`
	TermWeeks   *int    `json:"termWeeks,omitempty"`
}

type MakePaymentRequest struct {
	Amount string `json:"amount"`
}

type LoanResponse struct {
	LoanID           string    `json:"loanId"`
	CustomerID       string    `json:"customerId"`
	ProductCode      string    `json:"productCode"`
	Principal        string    `json:"principal"`
	NetProceeds      string    `json:"netProceeds"`
	OriginationFee   string    `json:"originationFee"`
	RatePercent      string    `json:"ratePercent"`
	TermWeeks        int       `json:"termWeeks"`
	Status           string    `json:"status"`
	RemainingBalance string    `json:"remainingBalance"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	return LoanResponse{
		LoanID:           l.ID,
		CustomerID:       l.CustomerID,
		ProductCode:      l.ProductCode,
		Principal:        l.Principal.StringFixed(2),
		NetProceeds:      l.NetProceeds.StringFixed(2),
		OriginationFee:   l.OriginationFee.StringFixed(2),
		RatePercent:      l.RatePercent.String(),
		TermWeeks:        l.TermWeeks,
		Status:           string(l.Status),
		RemainingBalance: l.RemainingBalance.StringFixed(2),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

type CreateLoanResponse struct {
	Loan     LoanResponse `json:"loan"`
	Warnings []string     `json:"warnings,omitempty"`
}

type PaymentResponse struct {
	TransactionID    string `json:"transactionId"`
	LoanID           string `json:"loanId"`
	Amount           string `json:"amount"`
	RemainingBalance string `json:"remainingBalance"`
	Status           string `json:"status"`
}

type ScheduleRowResponse struct {
	Period           int    `json:"period"`
	Payment          string `json:"payment"`
	PrincipalPortion string `json:"principalPortion"`
	InterestPortion  string `json:"interestPortion"`
	BalanceAfter     string `json:"balanceAfter"`
}

func NewScheduleResponse(rows []schedule.PeriodRow) []ScheduleRowResponse {
	out := make([]ScheduleRowResponse, len(rows))
	for i, row := range rows {
		out[i] = ScheduleRowResponse{
			Period:           row.Period,
			Payment:          row.Payment.StringFixed(2),
			PrincipalPortion: row.PrincipalPortion.StringFixed(2),
			InterestPortion:  row.InterestPortion.StringFixed(2),
			BalanceAfter:     row.BalanceAfter.StringFixed(2),
		}
	}
	return out
}

type TransactionResponse struct {
	TransactionID string    `json:"transactionId"`
	LoanID        string    `json:"loanId"`
	Amount        string    `json:"amount"`
	OccurredAt    time.Time `json:"occurredAt"`
	ProcessedBy   string    `json:"processedBy"`
}

func NewTransactionResponse(t *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.ID,
		LoanID:        t.LoanID,
		Amount:        t.Amount.StringFixed(2),
		OccurredAt:    t.OccurredAt,
		ProcessedBy:   t.ProcessedBy,
	}
}

type ProductResponse struct {
	Code                  string `json:"code"`
	Label                 string `json:"label"`
	RatePercent           string `json:"ratePercent"`
	PrincipalCap          string `json:"principalCap"`
	OriginationFeePercent string `json:"originationFeePercent"`
}

func NewProductResponse(p pricing.Product) ProductResponse {
	return ProductResponse{
		Code:                  p.Code,
		Label:                 p.Label,
		RatePercent:           p.RatePercent.String(),
		PrincipalCap:          p.PrincipalCap.StringFixed(2),
		OriginationFeePercent: p.OriginationFeePercent.String(),
	}
}
