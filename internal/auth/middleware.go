// Package auth provides authentication middleware for API key and JWT-based client authentication.
package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// APIKeyHeader is the request header for API key authentication
	APIKeyHeader = "X-Api-Key"

	// clientContextKey is the context key for storing client info
	clientContextKey contextKey = "client"
)

// ClientInfo holds client identity extracted from authentication
type ClientInfo struct {
	ID   string
	Name string
}

// Middleware validates requests with either a bearer JWT or a static API key.
type Middleware struct {
	jwtManager *JWTManager
	apiKey     string
	skipPaths  map[string]bool
}

// NewMiddleware creates authentication middleware. An empty apiKey disables
// the API key path and leaves bearer tokens as the only way in.
func NewMiddleware(jwtManager *JWTManager, apiKey string) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		apiKey:     apiKey,
		skipPaths: map[string]bool{
			"/healthz":       true,
			"/readyz":        true,
			"/v1/auth/token": true,
		},
	}
}

// WithSkipPaths adds paths to skip authentication
func (m *Middleware) WithSkipPaths(paths ...string) *Middleware {
	for _, path := range paths {
		m.skipPaths[path] = true
	}
	return m
}

// Handler wraps an http.Handler with authentication.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
			if m.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) != 1 {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), clientContextKey, &ClientInfo{Name: "api-key"})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing credentials", http.StatusUnauthorized)
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			http.Error(w, "malformed authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		info := &ClientInfo{ID: claims.ClientID, Name: claims.ClientName}
		ctx := context.WithValue(r.Context(), clientContextKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientFromContext extracts client info from context
func ClientFromContext(ctx context.Context) (*ClientInfo, bool) {
	client, ok := ctx.Value(clientContextKey).(*ClientInfo)
	return client, ok
}
