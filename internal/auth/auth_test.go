package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestManager(expiry time.Duration) *JWTManager {
	cfg := DefaultJWTConfig("test-secret")
	cfg.Expiry = expiry
	return NewJWTManager(cfg)
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := newTestManager(time.Hour)
	clientID := uuid.New()

	token, err := manager.GenerateToken(clientID, "eval-runner")
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, clientID.String(), claims.ClientID)
	require.Equal(t, "eval-runner", claims.ClientName)

	parsed, err := claims.GetClientID()
	require.NoError(t, err)
	require.Equal(t, clientID, parsed)
}

func TestValidateToken_Expired(t *testing.T) {
	manager := newTestManager(time.Hour)
	token, err := manager.GenerateTokenWithExpiry(uuid.New(), "x", -time.Minute)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	manager := newTestManager(time.Hour)
	token, err := manager.GenerateToken(uuid.New(), "x")
	require.NoError(t, err)

	other := NewJWTManager(DefaultJWTConfig("different-secret"))
	_, err = other.ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_Expired(t *testing.T) {
	manager := newTestManager(time.Hour)
	clientID := uuid.New()
	expired, err := manager.GenerateTokenWithExpiry(clientID, "refresher", -time.Minute)
	require.NoError(t, err)

	refreshed, err := manager.RefreshToken(expired)
	require.NoError(t, err)

	claims, err := manager.ValidateToken(refreshed)
	require.NoError(t, err)
	require.Equal(t, clientID.String(), claims.ClientID)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_BearerToken(t *testing.T) {
	manager := newTestManager(time.Hour)
	mw := NewMiddleware(manager, "")

	token, err := manager.GenerateToken(uuid.New(), "caller")
	require.NoError(t, err)

	var got *ClientInfo
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClientFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	require.Equal(t, "caller", got.Name)
}

func TestMiddleware_APIKey(t *testing.T) {
	mw := NewMiddleware(newTestManager(time.Hour), "secret-key")

	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", nil)
	req.Header.Set(APIKeyHeader, "secret-key")
	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/retrieve", nil)
	req.Header.Set(APIKeyHeader, "wrong-key")
	rec = httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_MissingCredentials(t *testing.T) {
	mw := NewMiddleware(newTestManager(time.Hour), "")

	req := httptest.NewRequest(http.MethodPost, "/v1/retrieve", nil)
	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_SkipPaths(t *testing.T) {
	mw := NewMiddleware(newTestManager(time.Hour), "")

	for _, path := range []string{"/healthz", "/readyz", "/v1/auth/token"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mw.Handler(okHandler()).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
