package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/internal/auth"
	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/export"
	"github.com/decortz/sill-backend/internal/maintenance"
	"github.com/decortz/sill-backend/internal/movements"
	"github.com/decortz/sill-backend/internal/tires"
	"github.com/decortz/sill-backend/internal/users"
	"github.com/decortz/sill-backend/internal/vehicles"
	pkgauth "github.com/decortz/sill-backend/pkg/auth"
	"github.com/decortz/sill-backend/pkg/config"
	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/pagination"
	"github.com/decortz/sill-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubClientService struct {
	clients.Service
}

func (stubClientService) List(context.Context, []string, pagination.Params) ([]models.Client, string, error) {
	return nil, "", nil
}

func (stubClientService) Update(_ context.Context, nit string, _ clients.UpdateClientInput) (*models.Client, error) {
	return &models.Client{NIT: nit, Name: "Transportes Andinos"}, nil
}

func (stubClientService) Delete(context.Context, string) error { return nil }

type stubTireService struct {
	tires.Service
}

func (stubTireService) List(context.Context, []string, pagination.Params) ([]models.Tire, string, error) {
	return nil, "", nil
}

type stubUserService struct {
	users.Service
}

func (stubUserService) List(context.Context, pagination.Params) ([]models.User, string, error) {
	return nil, "", nil
}

type stubAuthService struct {
	auth.Service
}

type stubVehicleService struct {
	vehicles.Service
}

type stubMovementService struct {
	movements.Service
}

type stubMaintenanceService struct {
	maintenance.Service
}

type stubExportService struct {
	export.Service
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginUsernameLimit: 5,
			LoginIPLimit:       20,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionChecker{},
		nil,
		Services{
			Auth:        stubAuthService{},
			Users:       stubUserService{},
			Clients:     stubClientService{},
			Vehicles:    stubVehicleService{},
			Tires:       stubTireService{},
			Movements:   stubMovementService{},
			Maintenance: stubMaintenanceService{},
			Export:      stubExportService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, level enums.AccessLevel) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		Username:    "tester",
		AccessLevel: level,
		ClientNITs:  []string{"900123456"},
		JTI:         uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tires", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tires", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelOperator))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for tire listing got %d", resp.Code)
	}
}

func TestUserRoutesRequireAdminLevel(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelSupervisor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCatalogWritesRequireSupervisorLevel(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := strings.NewReader(`{"name":"Transportes Andinos"}`)
	operator := httptest.NewRequest(http.MethodPut, "/api/v1/clients/900123456", body)
	operator.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelOperator))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, operator)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for operator update got %d", resp.Code)
	}

	body = strings.NewReader(`{"name":"Transportes Andinos"}`)
	supervisor := httptest.NewRequest(http.MethodPut, "/api/v1/clients/900123456", body)
	supervisor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelSupervisor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, supervisor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for supervisor update got %d", resp.Code)
	}
}

func TestCatalogDeletesRequireAdminLevel(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	supervisor := httptest.NewRequest(http.MethodDelete, "/api/v1/clients/900123456", nil)
	supervisor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelSupervisor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, supervisor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for supervisor delete got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodDelete, "/api/v1/clients/900123456", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin delete got %d", resp.Code)
	}
}

func TestClientListPassesForScopedLevels(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccessLevelClientAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for client-admin listing got %d", resp.Code)
	}
}
