package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/auth"
	authPostgres "github.com/frahmantamala/org-management/internal/auth/postgres"
	"github.com/frahmantamala/org-management/internal/core/events"
	"github.com/frahmantamala/org-management/internal/department"
	departmentPostgres "github.com/frahmantamala/org-management/internal/department/postgres"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	hierarchyPostgres "github.com/frahmantamala/org-management/internal/hierarchy/postgres"
	"github.com/frahmantamala/org-management/internal/orgchart"
	"github.com/frahmantamala/org-management/internal/role"
	rolePostgres "github.com/frahmantamala/org-management/internal/role/postgres"
	"github.com/frahmantamala/org-management/internal/transport"
	"github.com/frahmantamala/org-management/internal/transport/middleware"
	"github.com/frahmantamala/org-management/internal/transport/rest"
	"github.com/frahmantamala/org-management/internal/user"
	userPostgres "github.com/frahmantamala/org-management/internal/user/postgres"
	"github.com/frahmantamala/org-management/pkg/logger"
	"github.com/frahmantamala/org-management/pkg/tracing"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Router   *chi.Mux
	Bus      *events.EventBus
	Logger   *slog.Logger
	shutdown []func(context.Context) error
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.close(ctx)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close(context.Background())
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

// close drains in-flight event handlers before releasing the pool.
func (d *Dependencies) close(ctx context.Context) {
	d.Bus.Wait()
	for _, fn := range d.shutdown {
		if err := fn(ctx); err != nil {
			d.Logger.Error("Shutdown hook failed", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	deps := &Dependencies{Config: cfg, Logger: lg, Router: chi.NewRouter()}

	if cfg.Observability.Tracing.Enabled {
		shutdown, err := tracing.Init(context.Background(), tracing.Config{
			ServiceName:  cfg.Observability.Tracing.ServiceName,
			Environment:  cfg.Observability.Environment,
			CollectorURL: cfg.Observability.Tracing.CollectorURL,
			SamplingRate: cfg.Observability.Tracing.SamplingRate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		deps.shutdown = append(deps.shutdown, shutdown)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	bus := events.NewEventBus(lg)
	events.SubscribeAuditLog(bus, lg)
	deps.Bus = bus

	hierarchyService := newHierarchyService(cfg, db, lg)

	roleRepo := rolePostgres.NewRoleRepository(gdb)
	departmentRepo := departmentPostgres.NewDepartmentRepository(gdb)
	userRepo := userPostgres.NewUserRepository(gdb)

	roleService := role.NewService(roleRepo, lg)
	departmentService := department.NewService(departmentRepo, lg)
	userService := user.NewService(userRepo, roleRepo, departmentRepo, hierarchyService, bus, cfg.Security.BCryptCost, lg)
	orgChartService := orgchart.NewService(hierarchyService, userRepo, departmentRepo, cfg.Hierarchy.DetailBatchSize, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokenGen, lg)

	baseHandler := transport.NewBaseHandler(lg)
	handlers := rest.Handlers{
		Health:     rest.NewHealthHandler(baseHandler, map[string]rest.Pinger{"postgres": db}),
		Auth:       auth.NewHandler(authService),
		RBAC:       auth.NewRBACAuthorization(hierarchyService, lg),
		User:       user.NewHandler(userService),
		OrgChart:   orgchart.NewHandler(baseHandler, orgChartService),
		Role:       role.NewHandler(baseHandler, roleService),
		Department: department.NewHandler(baseHandler, departmentService),
	}

	if cfg.Server.ValidateRequests {
		validator, err := middleware.NewRequestValidator(context.Background(), cfg.Server.OpenAPISpecPath, lg)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to load openapi document: %w", err)
		}
		handlers.Validator = validator
	}

	rest.RegisterAllRoutes(deps.Router, cfg, handlers, lg)
	return deps, nil
}

func newHierarchyService(cfg *internal.Config, db *sqlx.DB, lg *slog.Logger) *hierarchy.Service {
	return hierarchy.NewService(
		hierarchyPostgres.NewHierarchyRepository(db),
		hierarchy.NewAdminPolicy(cfg.Hierarchy.AdminRoles...),
		hierarchy.Options{
			AdminBatchSize:   cfg.Hierarchy.AdminBatchSize,
			StrictCycleCheck: cfg.Hierarchy.StrictCycleCheck,
		},
		lg,
	)
}
