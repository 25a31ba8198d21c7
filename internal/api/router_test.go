package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accesspath/accesspath/internal/api"
	"github.com/accesspath/accesspath/internal/api/models"
	"github.com/accesspath/accesspath/internal/audit"
	"github.com/accesspath/accesspath/internal/auth"
	"github.com/accesspath/accesspath/internal/lifecycle"
	"github.com/accesspath/accesspath/internal/obstacle"
	"github.com/accesspath/accesspath/internal/priority"
)

// testEnv holds the wired services behind a test router.
type testEnv struct {
	router http.Handler
	auth   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.accesspath.ph",
		Audience:   "accesspath-api",
	})
	authService := auth.NewService(auth.ServiceConfig{
		JWTService:  jwtService,
		AdminRepo:   auth.NewInMemoryAdminRepository(),
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
	})

	repo := obstacle.NewInMemoryRepository()
	recorder := audit.NewInMemoryRecorder()
	logger := zerolog.New(io.Discard)

	obstacleService := obstacle.NewService(obstacle.ServiceConfig{
		Repo:    repo,
		Manager: lifecycle.NewManager(recorder),
		Trail:   recorder,
		Logger:  logger,
	})
	priorityService := priority.NewService(priority.ServiceConfig{
		Repo:      repo,
		Snapshots: priority.NewInMemorySnapshotRepository(),
		Logger:    logger,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:         "test",
		BuildTime:       "2026-01-01T00:00:00Z",
		Logger:          logger,
		AuthService:     authService,
		ObstacleService: obstacleService,
		PriorityService: priorityService,
	})

	return &testEnv{router: router, auth: authService}
}

// addAuthHeader adds a valid Bearer token with the given role.
func (e *testEnv) addAuthHeader(t *testing.T, req *http.Request, role auth.Role) {
	t.Helper()

	admin, err := e.auth.CreateAdmin(context.Background(),
		"admin-"+string(role)+"@example.com", "Test Admin", "test-password", role)
	require.NoError(t, err)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.accesspath.ph",
		Audience:   "accesspath-api",
	})
	token, _, err := jwtService.GenerateAccessToken(admin)
	require.NoError(t, err)

	req.Header.Set("Authorization", "Bearer "+token)
}

// reportObstacle files an obstacle through the API and returns it.
func (e *testEnv) reportObstacle(t *testing.T) models.Obstacle {
	t.Helper()

	body, _ := json.Marshal(models.ObstacleCreateRequest{
		Point:       models.Point{Lat: 14.5995, Lon: 120.9842},
		Type:        "stairs_no_ramp",
		Severity:    "blocking",
		Description: "Overpass stairs with no ramp",
		ReporterID:  "rpt_abc123",
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/obstacles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var o models.Obstacle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	return o
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	env.addAuthHeader(t, req, auth.RoleViewer)
	w = httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
}

func TestRouter_GetEnums(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/enums", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var enums models.Enums
	err := json.Unmarshal(w.Body.Bytes(), &enums)
	require.NoError(t, err)

	assert.Contains(t, enums.Types, "stairs_no_ramp")
	assert.Contains(t, enums.Severities, "blocking")
	assert.Contains(t, enums.Statuses, "pending")
	assert.Contains(t, enums.Categories, "CRITICAL")
	assert.Contains(t, enums.ImplementationCategories, "Quick Fix")
}

func TestRouter_GetTransitions(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/transitions", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var transitions map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transitions))

	assert.ElementsMatch(t, []string{"verified", "false_report"}, transitions["pending"])
	assert.Empty(t, transitions["resolved"])
}

func TestRouter_CreateAndGetObstacle(t *testing.T) {
	env := newTestEnv(t)

	created := env.reportObstacle(t)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "pending", created.Status)

	req := httptest.NewRequest(http.MethodGet, "/v1/obstacles/"+created.ID, http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var fetched models.Obstacle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "stairs_no_ramp", fetched.Type)
}

func TestRouter_CreateObstacle_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(models.ObstacleCreateRequest{
		Point:    models.Point{Lat: 200, Lon: 0},
		Type:     "not_a_type",
		Severity: "blocking",
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/obstacles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.NotEmpty(t, problem.Errors)
}

func TestRouter_RankedObstacles(t *testing.T) {
	env := newTestEnv(t)
	env.reportObstacle(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/obstacles/ranked", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var ranked models.RankedObstacles
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranked))
	require.Len(t, ranked.Items, 1)

	// blocking(40) + stairs_no_ramp(20) + pending(5)
	assert.Equal(t, 65, ranked.Items[0].Priority.Score)
	assert.Equal(t, "HIGH", ranked.Items[0].Priority.Category)
	assert.Equal(t, 1, ranked.Stats.Total)
}

func TestRouter_ObstacleStats(t *testing.T) {
	env := newTestEnv(t)
	env.reportObstacle(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/obstacles/stats", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.ObstacleStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus["pending"])
}

func TestRouter_Vote(t *testing.T) {
	env := newTestEnv(t)
	created := env.reportObstacle(t)

	body, _ := json.Marshal(models.VoteRequest{ReporterID: "rpt_voter1", Up: true})
	req := httptest.NewRequest(http.MethodPost, "/v1/obstacles/"+created.ID+"/votes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var o models.Obstacle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, 1, o.Upvotes)

	// Second vote from the same reporter conflicts.
	req = httptest.NewRequest(http.MethodPost, "/v1/obstacles/"+created.ID+"/votes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_ChangeStatus(t *testing.T) {
	env := newTestEnv(t)
	created := env.reportObstacle(t)

	body, _ := json.Marshal(models.StatusChangeRequest{Status: "verified", Notes: "confirmed"})
	req := httptest.NewRequest(http.MethodPatch, "/v1/obstacles/"+created.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.addAuthHeader(t, req, auth.RoleStaff)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var o models.Obstacle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, "verified", o.Status)
}

func TestRouter_ChangeStatus_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	created := env.reportObstacle(t)

	body, _ := json.Marshal(models.StatusChangeRequest{Status: "verified"})
	req := httptest.NewRequest(http.MethodPatch, "/v1/obstacles/"+created.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ChangeStatus_ViewerForbidden(t *testing.T) {
	env := newTestEnv(t)
	created := env.reportObstacle(t)

	body, _ := json.Marshal(models.StatusChangeRequest{Status: "verified"})
	req := httptest.NewRequest(http.MethodPatch, "/v1/obstacles/"+created.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.addAuthHeader(t, req, auth.RoleViewer)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ChangeStatus_DisallowedTransition(t *testing.T) {
	env := newTestEnv(t)
	created := env.reportObstacle(t)

	steps := []string{"verified", "resolved"}
	for _, status := range steps {
		body, _ := json.Marshal(models.StatusChangeRequest{Status: status})
		req := httptest.NewRequest(http.MethodPatch, "/v1/obstacles/"+created.ID+"/status", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.addAuthHeader(t, req, auth.RoleStaff)
		w := httptest.NewRecorder()

		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// resolved is terminal
	body, _ := json.Marshal(models.StatusChangeRequest{Status: "pending"})
	req := httptest.NewRequest(http.MethodPatch, "/v1/obstacles/"+created.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.addAuthHeader(t, req, auth.RoleStaff)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_History(t *testing.T) {
	env := newTestEnv(t)
	created := env.reportObstacle(t)

	body, _ := json.Marshal(models.StatusChangeRequest{Status: "verified"})
	req := httptest.NewRequest(http.MethodPatch, "/v1/obstacles/"+created.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	env.addAuthHeader(t, req, auth.RoleStaff)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/obstacles/"+created.ID+"/history", http.NoBody)
	env.addAuthHeader(t, req, auth.RoleViewer)
	w = httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var history models.StatusHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, "pending", history.Items[0].FromStatus)
	assert.Equal(t, "verified", history.Items[0].ToStatus)
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/obstacles/obs_missing", http.NoBody)
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_Login(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.CreateAdmin(context.Background(),
		"ana@example.com", "Ana Reyes", "s3cret-pass", auth.RoleStaff)
	require.NoError(t, err)

	body, _ := json.Marshal(auth.LoginRequest{Email: "ana@example.com", Password: "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var tokens auth.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
}

func TestRouter_Login_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.CreateAdmin(context.Background(),
		"ana@example.com", "Ana Reyes", "s3cret-pass", auth.RoleStaff)
	require.NoError(t, err)

	body, _ := json.Marshal(auth.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
