// Package middleware holds the HTTP middleware of the read API: Firebase
// ID-token authentication and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type contextKey string

const (
	// UserIDKey carries the authenticated Firebase UID.
	UserIDKey contextKey = "userID"
	// AuthKey carries the full AuthInfo.
	AuthKey contextKey = "auth"
)

// AuthInfo contains the authenticated caller's identity.
type AuthInfo struct {
	UserID string
	Email  string
}

// TokenVerifier validates a Firebase ID token. *auth.Client satisfies it;
// tests substitute a stub.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware guards routes behind Firebase ID-token verification.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates the middleware over a token verifier.
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects requests without a valid "Bearer <token>" header and
// stores the caller's identity in the request context for the handler.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token, err := m.verifier.VerifyIDToken(r.Context(), parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		info := AuthInfo{UserID: token.UID}
		if email, ok := token.Claims["email"].(string); ok {
			info.Email = email
		}

		ctx := context.WithValue(r.Context(), AuthKey, info)
		ctx = context.WithValue(ctx, UserIDKey, token.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the authenticated UID from the context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetAuth retrieves the full identity from the request context.
func GetAuth(r *http.Request) (AuthInfo, bool) {
	if info, ok := r.Context().Value(AuthKey).(AuthInfo); ok {
		return info, true
	}
	return AuthInfo{}, false
}

// CORS allows the dashboard frontend to call the read API from another
// origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
