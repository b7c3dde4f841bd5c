package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/config"
	"lending-engine/internal/domain/staff"
	"lending-engine/internal/pkg/apperrors"
)

type AuthHandler struct {
	cfg     config.AuthConfig
	service staff.Service
	logger  *slog.Logger
}

func NewAuthHandler(cfg config.AuthConfig, s staff.Service, l *slog.Logger) *AuthHandler {
	if s == nil {
		panic("staff service cannot be nil")
	}
	return &AuthHandler{
		cfg:     cfg,
		service: s,
		logger:  l.With("component", "AuthHandler"),
	}
}

// Login handles POST /auth/login. A successful login returns a bearer
// token carrying the staff identity and role as claims.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode login request", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, fmt.Errorf("%w: email and password are required", apperrors.ErrInvalidArgument))
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Login rejected", "email", req.Email)
		respondError(w, err)
		return
	}

	ttl := h.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"sub":   account.ID,
		"name":  account.Name,
		"email": account.Email,
		"role":  string(account.Role),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", slog.Any("error", err))
		respondError(w, apperrors.ErrInternalServer)
		return
	}

	h.logger.InfoContext(r.Context(), "Staff logged in", "staff_id", account.ID, "role", account.Role)
	respondJSON(w, http.StatusOK, dto.LoginResponse{Token: tokenString})
}
