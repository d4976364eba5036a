package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/CompanyDirectory/pkg/httputil"
	"github.com/utafrali/CompanyDirectory/pkg/logger"
)

type contextKeyType string

const claimsKey contextKeyType = "auth_claims"

// Claims is the verified identity the auth gate attaches to the request.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

// TokenValidator verifies a raw bearer token and returns its claims. It must
// not perform I/O.
type TokenValidator func(token string) (*Claims, error)

// Auth rejects requests without a valid bearer token. A missing or malformed
// Authorization header answers 401 UNAUTHENTICATED; a token the validator
// rejects answers 401 INVALID_TOKEN. On success the claims are stored in the
// request context and the request-scoped logger gains a user_id field.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeAuthError(w, r, "UNAUTHENTICATED", "missing or malformed authorization header")
				return
			}

			claims, err := validate(token)
			if err != nil || claims == nil || claims.UserID == "" {
				writeAuthError(w, r, "INVALID_TOKEN", "invalid or expired token")
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = logger.WithUserID(ctx, claims.UserID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", claims.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// WithClaims returns a context carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by Auth, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey).(*Claims); ok {
		return c
	}
	return nil
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, r *http.Request, code, message string) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:      code,
			Message:   message,
			RequestID: logger.CorrelationIDFromContext(r.Context()),
		},
	})
}
