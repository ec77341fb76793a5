package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "carbonregistry/pkg/domain"
)

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for use in handlers and tests.
var ContextKeyPrincipal = contextKeyPrincipal{}

// GetPrincipal retrieves the authenticated caller identity from the context.
func GetPrincipal(ctx context.Context) id.Principal {
	principal, ok := ctx.Value(ContextKeyPrincipal).(id.Principal)
	if !ok {
		return ""
	}
	return principal
}

// WithPrincipal injects a caller identity into the context.
func WithPrincipal(ctx context.Context, principal id.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, principal)
}

// principalClaims are the claims expected on a registry bearer token. The
// subject claim carries the principal.
type principalClaims struct {
	jwt.RegisteredClaims
}

// RequirePrincipal authenticates the caller for mutating routes.
//
// Callers present either an HS256 bearer token whose subject is their
// principal, or an X-Registry-Principal header. The header path exists for
// development and trusted-gateway deployments; identity is opaque either way
// and carries no inherent privilege.
func RequirePrincipal(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	key := []byte(signingKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				claims := &principalClaims{}
				parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return key, nil
				})
				if err != nil || !parsed.Valid || claims.Subject == "" {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}
				ctx = WithPrincipal(ctx, id.ParsePrincipal(claims.Subject))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if header := r.Header.Get("X-Registry-Principal"); header != "" {
				ctx = WithPrincipal(ctx, id.ParsePrincipal(header))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			logger.WarnContext(ctx, "unauthorized access - missing caller identity",
				"request_id", GetRequestID(ctx),
			)
			writeUnauthorized(w, "Missing bearer token or X-Registry-Principal header")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
