package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"enroll/pkg/requestcontext"
)

// AdminRole is the role claim required on admin tokens.
const AdminRole = "admin"

// AdminClaims are the claims carried by an admin bearer token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminTokens issues and validates HS256 admin tokens.
type AdminTokens struct {
	key    []byte
	issuer string
}

func NewAdminTokens(signingKey, issuer string) *AdminTokens {
	return &AdminTokens{key: []byte(signingKey), issuer: issuer}
}

// Issue signs a token for subject valid for ttl from now.
func (a *AdminTokens) Issue(subject string, now time.Time, ttl time.Duration) (string, error) {
	claims := AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// Validate parses and checks a token, returning its claims.
func (a *AdminTokens) Validate(token string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(a.issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.Role != AdminRole {
		return nil, errors.New("token lacks admin role")
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid admin bearer token. When tokens is
// nil (no signing key configured) every admin request is rejected.
func RequireAdmin(tokens *AdminTokens, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || tokens == nil {
				logger.WarnContext(ctx, "unauthorized admin access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized admin access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithAdminSubject(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
