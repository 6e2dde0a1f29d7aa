package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/decortz/sill-backend/api/routes"
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
	"github.com/decortz/sill-backend/pkg/logger"
	"github.com/decortz/sill-backend/pkg/metrics"
	"github.com/decortz/sill-backend/pkg/migrate"
	"github.com/decortz/sill-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	clientRepo := clients.NewRepository(dbClient.DB())
	vehicleRepo := vehicles.NewRepository(dbClient.DB())
	tireRepo := tires.NewRepository(dbClient.DB())
	movementRepo := movements.NewRepository(dbClient.DB())
	maintenanceRepo := maintenance.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())

	clientService, err := clients.NewService(clientRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create client service", err)
		os.Exit(1)
	}
	vehicleService, err := vehicles.NewService(vehicleRepo, clientRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create vehicle service", err)
		os.Exit(1)
	}
	tireService, err := tires.NewService(tireRepo, vehicleRepo, clientRepo, movementRepo, maintenanceRepo, dbClient, cfg.Fleet)
	if err != nil {
		logg.Error(context.Background(), "failed to create tire service", err)
		os.Exit(1)
	}
	movementService, err := movements.NewService(movementRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create movement service", err)
		os.Exit(1)
	}
	maintenanceService, err := maintenance.NewService(maintenanceRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}
	userService, err := users.NewService(userRepo, clientRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	exportService, err := export.NewService(
		clientRepo,
		vehicleRepo,
		tireRepo,
		movementRepo,
		maintenanceRepo,
		clientService,
		vehicleService,
		tireService,
		cfg.Fleet,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create export service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, metrics.NewHTTPMetrics(), routes.Services{
			Auth:        authService,
			Users:       userService,
			Clients:     clientService,
			Vehicles:    vehicleService,
			Tires:       tireService,
			Movements:   movementService,
			Maintenance: maintenanceService,
			Export:      exportService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
