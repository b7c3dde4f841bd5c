package dto

import (
	"time"

	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/staff"
)

type CreateStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateStaffRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

type StaffResponse struct {
	StaffID   string    `json:"staffId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewStaffResponse(a *staff.Account) StaffResponse {
	return StaffResponse{
		StaffID:   a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      string(a.Role),
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type AuditEntryResponse struct {
	EntryID   string    `json:"entryId"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAuditEntryResponse(e audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		EntryID:   e.ID,
		Actor:     e.Actor,
		Action:    e.Action,
		Timestamp: e.Timestamp,
	}
}
