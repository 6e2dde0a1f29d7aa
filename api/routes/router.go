package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/decortz/sill-backend/api/controllers"
	"github.com/decortz/sill-backend/api/middleware"
	"github.com/decortz/sill-backend/internal/auth"
	"github.com/decortz/sill-backend/internal/clients"
	"github.com/decortz/sill-backend/internal/export"
	"github.com/decortz/sill-backend/internal/maintenance"
	"github.com/decortz/sill-backend/internal/movements"
	"github.com/decortz/sill-backend/internal/tires"
	"github.com/decortz/sill-backend/internal/users"
	"github.com/decortz/sill-backend/internal/vehicles"
	"github.com/decortz/sill-backend/pkg/auth/session"
	"github.com/decortz/sill-backend/pkg/config"
	"github.com/decortz/sill-backend/pkg/db"
	"github.com/decortz/sill-backend/pkg/enums"
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/metrics"
	"github.com/decortz/sill-backend/pkg/redis"
)

// Services bundles every domain service the router mounts.
type Services struct {
	Auth        auth.Service
	Users       users.Service
	Clients     clients.Service
	Vehicles    vehicles.Service
	Tires       tires.Service
	Movements   movements.Service
	Maintenance maintenance.Service
	Export      export.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	httpMetrics *metrics.HTTPMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", httpMetrics.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.Me(svcs.Users, logg))
			r.Put("/profile", controllers.MeUpdateProfile(svcs.Users, logg))
			r.Post("/password", controllers.MeChangePassword(svcs.Users, logg))
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", controllers.ClientList(svcs.Clients, logg))
			r.Get("/{nit}", controllers.ClientGet(svcs.Clients, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelSupervisor, logg))
				r.Post("/", controllers.ClientCreate(svcs.Clients, logg))
				r.Put("/{nit}", controllers.ClientUpdate(svcs.Clients, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelAdmin, logg))
				r.Delete("/{nit}", controllers.ClientDelete(svcs.Clients, logg))
			})
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", controllers.VehicleList(svcs.Vehicles, logg))
			r.Get("/{plate}", controllers.VehicleGet(svcs.Vehicles, logg))
			r.Get("/{plate}/tires", controllers.VehicleMountedTires(svcs.Tires, svcs.Vehicles, logg))
			r.Get("/{plate}/movements", controllers.VehicleMovements(svcs.Movements, svcs.Vehicles, logg))
			r.Get("/{plate}/services", controllers.VehicleServiceHistory(svcs.Maintenance, svcs.Vehicles, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelSupervisor, logg))
				r.Post("/", controllers.VehicleCreate(svcs.Vehicles, logg))
				r.Put("/{plate}", controllers.VehicleUpdate(svcs.Vehicles, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelAdmin, logg))
				r.Delete("/{plate}", controllers.VehicleDelete(svcs.Vehicles, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelOperator, logg))
				r.Post("/{plate}/rotations", controllers.VehicleRotate(svcs.Tires, svcs.Vehicles, logg))
			})
		})

		r.Route("/tires", func(r chi.Router) {
			r.Get("/", controllers.TireList(svcs.Tires, logg))
			r.Get("/{tireID}", controllers.TireGet(svcs.Tires, logg))
			r.Get("/{tireID}/movements", controllers.TireMovements(svcs.Movements, svcs.Tires, logg))
			r.Get("/{tireID}/services", controllers.TireServiceHistory(svcs.Maintenance, svcs.Tires, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelSupervisor, logg))
				r.Post("/", controllers.TireRegister(svcs.Tires, logg))
				r.Put("/{tireID}/prices", controllers.TireUpdatePrices(svcs.Tires, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelAdmin, logg))
				r.Delete("/{tireID}", controllers.TireDelete(svcs.Tires, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLevel(enums.AccessLevelOperator, logg))
				r.Post("/{tireID}/mount", controllers.TireMount(svcs.Tires, logg))
				r.Post("/{tireID}/dismount", controllers.TireDismount(svcs.Tires, logg))
				r.Post("/{tireID}/services", controllers.TireRegisterService(svcs.Tires, logg))
				r.Post("/{tireID}/retread-approval", controllers.TireApproveRetread(svcs.Tires, logg))
			})
		})

		r.Get("/movements", controllers.MovementList(svcs.Movements, logg))
		r.Get("/services", controllers.ServiceRecordList(svcs.Maintenance, logg))

		r.Get("/export/{table}", controllers.ExportTable(svcs.Export, logg))
		r.Route("/reports", func(r chi.Router) {
			r.Get("/fleet-status", controllers.FleetStatusReport(svcs.Export, logg))
			r.Get("/wear", controllers.WearReport(svcs.Export, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLevel(enums.AccessLevelAdmin, logg))
			r.Post("/import/{table}", controllers.ImportTable(svcs.Export, logg))
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.UserList(svcs.Users, logg))
				r.Post("/", controllers.UserCreate(svcs.Users, logg))
				r.Get("/{userID}", controllers.UserGet(svcs.Users, logg))
				r.Put("/{userID}", controllers.UserUpdate(svcs.Users, logg))
				r.Delete("/{userID}", controllers.UserDeactivate(svcs.Users, logg))
				r.Post("/{userID}/reset-password", controllers.UserResetPassword(svcs.Users, logg))
			})
		})
	})

	return r
}
