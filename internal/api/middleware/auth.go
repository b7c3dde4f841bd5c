package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"lending-engine/internal/config"
	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/staff"
)

const unauthorizedBody = `{"error":{"message":"Unauthorized"}}`

// AuthMiddleware validates the bearer token and stashes the staff
// identity from its claims into the request context. Downstream
// handlers and the audit log both read the identity from there.
func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFromJWT(r, cfg.JWTSecret, logger)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, unauthorizedBody, http.StatusUnauthorized)
				return
			}
			ctx := staff.WithIdentity(r.Context(), identity)
			ctx = audit.WithActor(ctx, identity.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromJWT(r *http.Request, secret string, logger *slog.Logger) (staff.Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Warn("AuthMiddleware: Missing Authorization header")
		return staff.Identity{}, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		logger.Warn("AuthMiddleware: Invalid Authorization header format")
		return staff.Identity{}, false
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Warn("AuthMiddleware: Unexpected signing method")
			return nil, http.ErrAbortHandler
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		logger.Warn("AuthMiddleware: Invalid token", "error", err)
		return staff.Identity{}, false
	}

	identity := staff.Identity{
		StaffID: stringClaim(claims, "sub"),
		Name:    stringClaim(claims, "name"),
		Email:   stringClaim(claims, "email"),
		Role:    staff.Role(stringClaim(claims, "role")),
	}
	if identity.StaffID == "" || !identity.Role.Valid() {
		logger.Warn("AuthMiddleware: Token claims missing identity", "staff_id", identity.StaffID)
		return staff.Identity{}, false
	}
	return identity, true
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// RequireRoles gates a route subtree to the given roles. When auth is
// disabled there is no identity in the context and the gate is a no-op
// so local development stays usable.
func RequireRoles(cfg config.AuthConfig, logger *slog.Logger, roles ...staff.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := staff.IdentityFromContext(r.Context())
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, unauthorizedBody, http.StatusUnauthorized)
				return
			}
			if !staff.AuthorizeIdentity(identity, roles...) {
				logger.Warn("Role gate rejected request",
					"staff_id", identity.StaffID, "role", identity.Role, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":{"message":"Forbidden"}}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
