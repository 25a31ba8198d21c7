package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accesspath/accesspath/internal/api/middleware"
	"github.com/accesspath/accesspath/internal/auth"
)

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_InvalidAuthorizationFormat(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase no space", "bearer token123"},
		{"empty bearer", "Bearer "},
		{"just bearer", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer invalid.jwt.token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Invalid tokens are detected and reported as such
	assert.Contains(t, rec.Body.String(), "invalid access token")
}

func TestAuth_ValidToken(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	token := createTestToken(t, auth.RoleStaff)

	var captured *auth.Identity
	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "adm_testadmin123", captured.AdminID)
	assert.Equal(t, auth.RoleStaff, captured.Role)
}

func TestAuth_CaseInsensitiveBearer(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)

	token := createTestToken(t, auth.RoleViewer)

	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Test with different case variations
	cases := []string{"Bearer ", "bearer ", "BEARER "}
	for _, prefix := range cases {
		t.Run(prefix, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("Authorization", prefix+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	authService := createTestAuthService(t)
	authMiddleware := middleware.Auth(authService)
	staffOnly := middleware.RequireRole(auth.RoleStaff)

	handler := authMiddleware(staffOnly(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("staff allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/test", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+createTestToken(t, auth.RoleStaff))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("viewer forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/test", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+createTestToken(t, auth.RoleViewer))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "insufficient role")
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		// RequireRole without a preceding Auth sees no identity.
		bare := staffOnly(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodPatch, "/test", http.NoBody)
		rec := httptest.NewRecorder()

		bare.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetAdminID_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	adminID := middleware.GetAdminID(req.Context())
	assert.Empty(t, adminID)
}

// createTestToken generates a valid access token with the given role.
func createTestToken(t *testing.T, role auth.Role) string {
	t.Helper()

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.accesspath.ph",
		Audience:   "accesspath-api",
	})

	admin := &auth.Admin{
		ID:        "adm_testadmin123",
		Email:     "test@example.com",
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	token, _, err := jwtService.GenerateAccessToken(admin)
	require.NoError(t, err)
	return token
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T) *auth.Service {
	t.Helper()

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.accesspath.ph",
		Audience:   "accesspath-api",
	})

	return auth.NewService(auth.ServiceConfig{
		JWTService:  jwtService,
		AdminRepo:   auth.NewInMemoryAdminRepository(),
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
	})
}
