package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func doRequest(authHeader string) (*httptest.ResponseRecorder, *Actor) {
	var seen *Actor
	handler := Middleware("topsecret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a, ok := FromContext(r.Context()); ok {
			seen = &a
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders/mine", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, "topsecret", jwt.MapClaims{
		"sub":   "user-1",
		"email": "user-1@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	rec, actor := doRequest("Bearer " + token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, "user-1", actor.ID)
	assert.Equal(t, "user-1@example.com", actor.Email)
}

func TestMiddleware_Rejections(t *testing.T) {
	expired := signToken(t, "topsecret", jwt.MapClaims{
		"sub": "user-1", "email": "user-1@example.com",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "othersecret", jwt.MapClaims{
		"sub": "user-1", "email": "user-1@example.com",
	})
	noEmail := signToken(t, "topsecret", jwt.MapClaims{"sub": "user-1"})

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc123",
		"garbage token":  "Bearer not.a.jwt",
		"expired":        "Bearer " + expired,
		"wrong key":      "Bearer " + wrongKey,
		"missing email":  "Bearer " + noEmail,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, actor := doRequest(header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, actor)
		})
	}
}
