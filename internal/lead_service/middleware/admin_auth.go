package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const AdminPrincipalContextKey = ContextKey("adminPrincipal")

// AdminRole is the role claim required on admin tokens.
const AdminRole = "admin"

// AdminClaims are the claims carried by an admin bearer token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminPrincipal is the authenticated caller of an admin route.
type AdminPrincipal struct {
	Subject string
}

// PrincipalFromContext returns the principal stored by AdminAuth.
func PrincipalFromContext(ctx context.Context) (AdminPrincipal, bool) {
	p, ok := ctx.Value(AdminPrincipalContextKey).(AdminPrincipal)
	return p, ok
}

// AdminAuth accepts HS256 bearer tokens signed with secret whose role claim
// is admin. An empty secret rejects every request.
func AdminAuth(secret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.WarnContext(r.Context(), "Admin route called but no admin secret is configured")
				writeError(w, http.StatusServiceUnavailable, "Admin access is not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" || tokenString == "" {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := parseAdminToken(secret, tokenString)
			if err != nil {
				logger.WarnContext(r.Context(), "Admin token rejected", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if claims.Role != AdminRole {
				logger.WarnContext(r.Context(), "Token lacks admin role", "subject", claims.Subject, "role", claims.Role)
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), AdminPrincipalContextKey, AdminPrincipal{Subject: claims.Subject})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// IssueAdminToken signs an admin token for subject that expires after ttl.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("admin secret is empty")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, nil
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
