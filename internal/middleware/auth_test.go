package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierStub struct {
	token *auth.Token
	err   error
}

func (v *verifierStub) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return v.token, v.err
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		require.True(t, ok, "handler reached without identity in context")
		w.Write([]byte(userID))
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	stub := &verifierStub{token: &auth.Token{
		UID:    "user-123",
		Claims: map[string]interface{}{"email": "user@example.com"},
	}}
	handler := NewAuthMiddleware(stub).RequireAuth(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-123", rec.Body.String())
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	handler := NewAuthMiddleware(&verifierStub{}).RequireAuth(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	handler := NewAuthMiddleware(&verifierStub{}).RequireAuth(protectedEcho(t))

	for _, header := range []string{"good-token", "Basic abc", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	stub := &verifierStub{err: errors.New("token expired")}
	handler := NewAuthMiddleware(stub).RequireAuth(protectedEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
