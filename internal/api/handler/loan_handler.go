package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/domain/pricing"
	"lending-engine/internal/domain/staff"
	"lending-engine/internal/pkg/apperrors"
)

type LoanHandler struct {
	loans   loan.Service
	ledger  ledger.Service
	catalog *pricing.Catalog
	logger  *slog.Logger
}

func NewLoanHandler(loans loan.Service, ledgerSvc ledger.Service, catalog *pricing.Catalog, l *slog.Logger) *LoanHandler {
	if loans == nil {
		panic("loan service cannot be nil")
	}
	if ledgerSvc == nil {
		panic("ledger service cannot be nil")
	}
	return &LoanHandler{
		loans:   loans,
		ledger:  ledgerSvc,
		catalog: catalog,
		logger:  l.With("component", "LoanHandler"),
	}
}

func loanIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "loanID")
	if id == "" {
		return "", fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return id, nil
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", apperrors.ErrInvalidArgument, field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s format: %s", apperrors.ErrInvalidArgument, field, raw)
	}
	return d, nil
}

// CreateLoan handles POST /loans. A customer who already carries an
// active loan does not block the application; the response flags it as
// a warning for the loan officer instead.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	principal, err := parseAmount(req.Principal, "principal")
	if err != nil {
		respondError(w, err)
		return
	}

	var warnings []string
	hasActive, err := h.loans.HasActiveLoan(r.Context(), req.CustomerID)
	if err != nil {
		// Advisory check only, the application proceeds without the warning.
		h.logger.WarnContext(r.Context(), "Active loan check failed",
			slog.String("customerID", req.CustomerID), slog.Any("error", err))
	} else if hasActive {
		warnings = append(warnings, "customer already has an active loan")
	}

	created, err := h.loans.Create(r.Context(), req.CustomerID, req.ProductCode, principal, req.TermWeeks)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to create loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan created successfully", slog.String("loanID", created.ID))
	respondJSON(w, http.StatusCreated, dto.CreateLoanResponse{
		Loan:     dto.NewLoanResponse(created),
		Warnings: warnings,
	})
}

// ListLoans handles GET /loans
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list loans", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.LoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = dto.NewLoanResponse(l)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetLoan handles GET /loans/{loanID}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	l, err := h.loans.Get(r.Context(), loanID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get loan", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l))
}

// EditLoan handles PUT /loans/{loanID}. Terms are editable while the
// loan is still pending approval; anything later is a conflict.
func (h *LoanHandler) EditLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.EditLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updates := loan.EditTermsInput{
		ProductCode: req.ProductCode,
		TermWeeks:   req.TermWeeks,
	}
	if req.Principal != nil {
		principal, err := parseAmount(*req.Principal, "principal")
		if err != nil {
			respondError(w, err)
			return
		}
		updates.Principal = &principal
	}

	updated, err := h.loans.EditTerms(r.Context(), loanID, updates)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to edit loan terms", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan terms updated successfully", slog.String("loanID", loanID))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

// ApproveLoan handles POST /loans/{loanID}/approve
func (h *LoanHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	approved, err := h.loans.Approve(r.Context(), loanID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to approve loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan approved successfully", slog.String("loanID", loanID))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(approved))
}

// DefaultLoan handles POST /loans/{loanID}/default
func (h *LoanHandler) DefaultLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	defaulted, err := h.loans.MarkDefaulted(r.Context(), loanID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to mark loan defaulted", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan marked defaulted", slog.String("loanID", loanID))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(defaulted))
}

// MakePayment handles POST /loans/{loanID}/payments
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.MakePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		respondError(w, err)
		return
	}

	staffID := ""
	if identity, ok := staff.IdentityFromContext(r.Context()); ok {
		staffID = identity.StaffID
	}

	txn, updated, err := h.ledger.RecordPayment(r.Context(), loanID, amount, staffID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to record payment", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Payment recorded successfully",
		slog.String("loanID", loanID), slog.String("transactionID", txn.ID))
	respondJSON(w, http.StatusOK, dto.PaymentResponse{
		TransactionID:    txn.ID,
		LoanID:           updated.ID,
		Amount:           txn.Amount.StringFixed(2),
		RemainingBalance: updated.RemainingBalance.StringFixed(2),
		Status:           string(updated.Status),
	})
}

// GetSchedule handles GET /loans/{loanID}/schedule
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	rows, err := h.loans.ScheduleFor(r.Context(), loanID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to build schedule", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(rows))
}

// ListTransactions handles GET /loans/{loanID}/transactions
func (h *LoanHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	txns, err := h.ledger.TransactionsFor(r.Context(), loanID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to list transactions", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.TransactionResponse, len(txns))
	for i, t := range txns {
		resp[i] = dto.NewTransactionResponse(t)
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListProducts handles GET /products
func (h *LoanHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.List()
	resp := make([]dto.ProductResponse, len(products))
	for i, p := range products {
		resp[i] = dto.NewProductResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}
