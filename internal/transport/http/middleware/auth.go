package middleware

import (
	"context"
	"net/http"
	"strings"

	"kpitracker/internal/domain/auth"
	"kpitracker/internal/transport/http/api"
)

// ActorResolver reloads the actor behind a token so role changes apply
// before the token expires.
type ActorResolver interface {
	ActorFor(ctx context.Context, userID string) (auth.Actor, error)
}

// Auth attaches the bearer token's actor to the request context. Requests
// without a valid token pass through anonymous; RequireUser rejects them.
func Auth(secret string, resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			actor := claims.Actor()
			if resolver != nil {
				actor, err = resolver.ActorFor(r.Context(), claims.UserID)
				if err != nil {
					// Deleted or unknown users are treated as anonymous.
					next.ServeHTTP(w, r)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), actor)))
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
