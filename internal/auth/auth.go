package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Actor is the authenticated identity extracted from the bearer token.
type Actor struct {
	ID    string
	Email string
}

type ctxKey struct{}

// FromContext returns the actor set by Middleware.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

// Middleware verifies an HS256 bearer token carrying sub and email claims
// and stores the actor on the request context.
func Middleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "missing or invalid Authorization header")
				return
			}

			token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "),
				func(t *jwt.Token) (any, error) { return key, nil },
				jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				unauthorized(w, "invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "invalid token payload")
				return
			}
			sub, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			if sub == "" || email == "" {
				unauthorized(w, "invalid token payload")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, Actor{ID: sub, Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
