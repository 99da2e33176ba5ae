package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-domain-routing-service/internal/http/response"
	"go-domain-routing-service/internal/security"
	"go-domain-routing-service/internal/service"
)

type contextKey string

const principalContextKey contextKey = "principal"

// PrincipalFromContext returns the authenticated owner stored by
// RequireAuth, or false when the request never passed through it.
func PrincipalFromContext(ctx context.Context) (service.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(service.Principal)
	return principal, ok
}

// RequireAuth validates the bearer access token and stores the resulting
// principal in the request context. Requests without a valid token get a
// 401 and never reach the handler.
func RequireAuth(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			claims, err := jwtMgr.ParseAccessToken(raw)
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "INVALID_OR_EXPIRED_TOKEN", "invalid or expired access token", nil)
				return
			}
			ownerID, err := claims.OwnerID()
			if err != nil || claims.TenantKey == "" {
				response.Error(w, r, http.StatusUnauthorized, "INVALID_OR_EXPIRED_TOKEN", "malformed token claims", nil)
				return
			}
			principal := service.Principal{OwnerID: ownerID, TenantKey: claims.TenantKey}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalContextKey, principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) >= len("bearer ")+1 && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}
