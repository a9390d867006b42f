package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "consentgate/pkg/domain-errors"
	"consentgate/pkg/platform/httputil"
	"consentgate/pkg/requestcontext"
)

// TokenValidator validates an operator bearer token and returns the operator
// identity carried in its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*OperatorClaims, error)
}

// OperatorClaims represents the claims we expect from the token validator.
type OperatorClaims struct {
	Operator string
	Role     string
}

// RequireAuth guards operator endpoints with bearer-token authentication and
// injects the operator identity into the request context as the audit actor.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "rejected bearer token",
						"request_id", requestcontext.RequestID(ctx),
						"error", err,
					)
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid bearer token"))
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.Operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
