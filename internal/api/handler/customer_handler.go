package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/customer"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

type CustomerHandler struct {
	service customer.Service
	loans   loan.Service
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.Service, loans loan.Service, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		loans:   loans,
		logger:  l.With("component", "CustomerHandler"),
	}
}

func customerIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "customerID")
	if id == "" {
		return "", fmt.Errorf("%w: customerID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return id, nil
}

// CreateCustomer handles POST /customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.Create(r.Context(), req.Name, req.Email, req.Phone, req.Address, req.Reference)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to create customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer created successfully", slog.String("customerID", created.ID))
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// GetCustomer handles GET /customers/{customerID}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	c, err := h.service.Get(r.Context(), customerID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get customer", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(c))
}

// ListCustomers handles GET /customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list customers", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.CustomerResponse, len(customers))
	for i, c := range customers {
		resp[i] = dto.NewCustomerResponse(c)
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateCustomer handles PUT /customers/{customerID}
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.Update(r.Context(), customerID, customer.UpdateInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Reference: req.Reference,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to update customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer updated successfully", slog.String("customerID", customerID))
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// ToggleCustomerStatus handles POST /customers/{customerID}/status.
// Deactivation leaves any existing loans untouched.
func (h *CustomerHandler) ToggleCustomerStatus(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.ToggleStatus(r.Context(), customerID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to toggle customer status", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer status toggled",
		slog.String("customerID", customerID), slog.String("status", string(updated.Status)))
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// HasActiveLoan handles GET /customers/{customerID}/active-loan
func (h *CustomerHandler) HasActiveLoan(w http.ResponseWriter, r *http.Request) {
	customerID, err := customerIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	hasActive, err := h.loans.HasActiveLoan(r.Context(), customerID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to check active loan", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.ActiveLoanResponse{HasActiveLoan: hasActive})
}
