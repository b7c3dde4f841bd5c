package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/staff"
	"lending-engine/internal/pkg/apperrors"
)

type StaffHandler struct {
	service  staff.Service
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewStaffHandler(s staff.Service, recorder *audit.Recorder, l *slog.Logger) *StaffHandler {
	if s == nil {
		panic("staff service cannot be nil")
	}
	return &StaffHandler{
		service:  s,
		recorder: recorder,
		logger:   l.With("component", "StaffHandler"),
	}
}

func staffIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "staffID")
	if id == "" {
		return "", fmt.Errorf("%w: staffID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return id, nil
}

// CreateStaff handles POST /staff
func (h *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	created, err := h.service.Create(r.Context(), req.Name, req.Email, req.Password, staff.Role(req.Role))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to create staff account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Staff account created", slog.String("staffID", created.ID))
	respondJSON(w, http.StatusCreated, dto.NewStaffResponse(created))
}

// ListStaff handles GET /staff
func (h *StaffHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list staff accounts", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.StaffResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = dto.NewStaffResponse(a)
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateStaff handles PUT /staff/{staffID}
func (h *StaffHandler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	staffID, err := staffIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updates := staff.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := staff.Role(*req.Role)
		updates.Role = &role
	}

	updated, err := h.service.Update(r.Context(), staffID, updates)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to update staff account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Staff account updated", slog.String("staffID", staffID))
	respondJSON(w, http.StatusOK, dto.NewStaffResponse(updated))
}

// DeleteStaff handles DELETE /staff/{staffID}. Deleting your own
// account is rejected.
func (h *StaffHandler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	staffID, err := staffIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), staffID); err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrForbidden) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to delete staff account", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Staff account deleted", slog.String("staffID", staffID))
	respondJSON(w, http.StatusNoContent, nil)
}

// ToggleStaffStatus handles POST /staff/{staffID}/status. Disabling
// your own account is rejected.
func (h *StaffHandler) ToggleStaffStatus(w http.ResponseWriter, r *http.Request) {
	staffID, err := staffIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.ToggleStatus(r.Context(), staffID)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to toggle staff status", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Staff status toggled",
		slog.String("staffID", staffID), slog.String("status", string(updated.Status)))
	respondJSON(w, http.StatusOK, dto.NewStaffResponse(updated))
}

// ListAuditLog handles GET /audit, most recent entries first.
func (h *StaffHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.recorder.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list audit log", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := make([]dto.AuditEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = dto.NewAuditEntryResponse(e)
	}
	respondJSON(w, http.StatusOK, resp)
}
