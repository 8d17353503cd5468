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

	"github.com/frahmantamala/employee-directory/api"
	"github.com/frahmantamala/employee-directory/internal"
	accountPostgres "github.com/frahmantamala/employee-directory/internal/account/postgres"
	"github.com/frahmantamala/employee-directory/internal/auth"
	"github.com/frahmantamala/employee-directory/internal/core/events"
	"github.com/frahmantamala/employee-directory/internal/employee"
	employeePostgres "github.com/frahmantamala/employee-directory/internal/employee/postgres"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/frahmantamala/employee-directory/internal/storage"
	"github.com/frahmantamala/employee-directory/internal/transport/rest"
	"github.com/frahmantamala/employee-directory/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	Gorm        *gorm.DB
	Router      *chi.Mux
	Metrics     *metrics.Metrics
	Tokens      *auth.TokenService
	AuthService *auth.Service
	Employees   *employee.Service
	Images      storage.ImageStore
	Events      *events.Bus
	Logger      *slog.Logger
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.DB.Close()

	setupRoutes(deps)

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
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig.String())
		shutdownCtx, cancel := internal.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Events.Wait()
	deps.Logger.Info("Server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config

	var uploadDir string
	if disk, ok := deps.Images.(*storage.DiskStore); ok {
		uploadDir = disk.Dir()
	}

	rest.RegisterAllRoutes(deps.Router, rest.Dependencies{
		DB:              deps.DB.DB,
		Gate:            auth.NewGate(deps.Tokens, deps.Metrics, deps.Logger),
		AuthHandler:     auth.NewHandler(deps.AuthService, deps.Logger),
		EmployeeHandler: employee.NewHandler(deps.Employees, cfg.Server.MaxBodyBytes, deps.Logger),
		Metrics:         deps.Metrics,
		MetricsPath:     cfg.Observability.Metrics.Path,
		AllowedOrigins:  cfg.Server.Origins(),
		UploadDir:       uploadDir,
		Logger:          deps.Logger,
	})
}

// initializeDependencies fails fast on a missing signing secret, an invalid
// OpenAPI document or an unreachable database.
func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if _, err := api.Load(ctx); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(config.Security.JWTSecret, config.Security.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure tokens: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := openGorm(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	images, err := storage.New(ctx, config.Storage)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}

	var m *metrics.Metrics
	if config.Observability.Metrics.Enabled {
		m = metrics.New()
	}

	accounts := accountPostgres.NewAccountRepository(gdb)
	employees := employeePostgres.NewEmployeeRepository(gdb)

	bus := newEventBus(m, lg)
	employeeService := employee.NewService(employees, images, config.Storage.MaxUploadBytes, lg)
	employeeService.SetPublisher(bus)

	return &Dependencies{
		Config:      config,
		DB:          db,
		Gorm:        gdb,
		Router:      chi.NewRouter(),
		Metrics:     m,
		Tokens:      tokens,
		AuthService: auth.NewService(accounts, tokens, config.Security.BCryptCost, m, lg),
		Employees:   employeeService,
		Images:      images,
		Events:      bus,
		Logger:      lg,
	}, nil
}

// newEventBus audits every directory change to the log and counts it.
func newEventBus(m *metrics.Metrics, lg *slog.Logger) *events.Bus {
	bus := events.NewBus(lg)
	audit := func(ctx context.Context, e events.Event) error {
		m.ObserveEmployeeEvent(e.EventType())
		attrs := []any{"event_type", e.EventType(), "event_id", e.EventID()}
		if ee, ok := e.(*events.EmployeeEvent); ok {
			attrs = append(attrs, "employee_id", ee.EmployeeID)
		}
		logger.From(ctx).Info("employee changed", attrs...)
		return nil
	}
	for _, t := range []string{events.EmployeeCreated, events.EmployeeUpdated, events.EmployeeDeleted} {
		bus.Subscribe(t, audit)
	}
	return bus
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	// sqlx.Connect pings before returning
	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}

// openGorm shares the sqlx pool with gorm.
func openGorm(db *sqlx.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}
