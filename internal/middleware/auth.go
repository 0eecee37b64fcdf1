package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/portalops/ledger-backend/internal/api/httpx"
	"github.com/portalops/ledger-backend/internal/auth"
	"github.com/portalops/ledger-backend/internal/services"
)

type actorKey struct{}

// WithActor injects the authenticated actor; used by handler tests too.
func WithActor(ctx context.Context, a services.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (services.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(services.Actor)
	return a, ok
}

type AuthMiddleware struct {
	tm          *auth.TokenManager
	gatewayKeys map[string]string
}

func NewAuthMiddleware(tm *auth.TokenManager, gatewayKeys map[string]string) *AuthMiddleware {
	return &AuthMiddleware{tm: tm, gatewayKeys: gatewayKeys}
}

// Auth accepts a Bearer access token and puts the actor on the context.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		claims, isRefresh, err := m.tm.ParseAny(token)
		if err != nil || isRefresh {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
			return
		}
		ctx := WithActor(r.Context(), services.Actor{ID: claims.UserID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GatewayAuth authenticates payment-gateway callbacks via X-Gateway-Key.
// The matching gateway name becomes the actor identity.
func (m *AuthMiddleware) GatewayAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Gateway-Key")
		if key == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing gateway key", nil)
			return
		}
		for name, want := range m.gatewayKeys {
			if key == want {
				ctx := WithActor(r.Context(), services.Actor{ID: name, Role: services.RoleGateway})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "unknown gateway key", nil)
	})
}

// RequireRole allows only the listed roles past.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "not authenticated", nil)
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
