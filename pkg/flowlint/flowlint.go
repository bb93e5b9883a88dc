package flowlint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/RealZimboGuy/flowlint/internal/config"
	"github.com/RealZimboGuy/flowlint/internal/controllers"
	"github.com/RealZimboGuy/flowlint/internal/migrations"
	"github.com/RealZimboGuy/flowlint/internal/registry"
	"github.com/RealZimboGuy/flowlint/internal/repository"
	"github.com/RealZimboGuy/flowlint/internal/validation"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lmittmann/tint"

	_ "github.com/go-sql-driver/mysql"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Start opens the database, loads the component catalog and serves the
// validation API until ctx is cancelled. A nil mux gets a fresh one; callers
// may pass their own to add routes.
func Start(ctx context.Context, mux *http.ServeMux) error {
	db, err := OpenDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := LoadRegistry()
	if err != nil {
		return err
	}
	if config.GetSystemSettingBool(config.COMPONENTS_WATCH) && catalog.Path() != "" {
		stop, err := catalog.Watch(ctx)
		if err != nil {
			slog.Warn("Component catalog will not be reloaded", "error", err)
		} else {
			defer stop()
		}
	}

	clock := core.NewRealClock()
	canvasRepo := repository.NewCanvasRepository(db, clock)
	userRepo := repository.NewUserRepository(db, clock)
	service := validation.NewService(canvasRepo, catalog)

	if mux == nil {
		mux = http.NewServeMux()
	}
	authEnabled := config.GetSystemSettingBool(config.AUTH_ENABLED)
	if !authEnabled {
		slog.Warn("Authentication is disabled")
	}
	validationController := controllers.NewValidationController(service, userRepo, authEnabled)
	validationController.CheckConcurrency = config.GetSystemSettingInteger(config.CHECK_CONCURRENCY)
	validationController.RegisterRoutes(mux, config.GetSystemSettingString(config.API_PREFIX))
	canvasesController := controllers.NewCanvasesController(canvasRepo, userRepo, authEnabled)
	canvasesController.RegisterRoutes(mux, config.GetSystemSettingString(config.API_PREFIX))
	healthController := controllers.NewHealthController(db, catalog)
	healthController.RegisterRoutes(mux)

	addr := ":" + config.GetSystemSettingString(config.SERVER_WEB_PORT)
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		addr = v
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           controllers.RequestLogger(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, server)
}

func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		slog.Error("HTTP server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	timeout := config.GetSystemSettingDuration(config.SERVER_SHUTDOWN_TIMEOUT)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	slog.Info("Shutting down HTTP server", "timeout", timeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewValidationService wires the canvas repository and catalog together,
// for commands that validate without serving HTTP.
func NewValidationService(db *sql.DB, catalog validation.Catalog) *validation.Service {
	return validation.NewService(repository.NewCanvasRepository(db, core.NewRealClock()), catalog)
}

// LoadRegistry reads the component catalog named by FLOWLINT_COMPONENTS_FILE.
// A missing file yields an empty catalog so that structural checks still run.
func LoadRegistry() (*registry.Registry, error) {
	path := config.GetSystemSettingString(config.COMPONENTS_FILE)
	if path == "" {
		slog.Warn("No component catalog configured, credential and nested config checks are off")
		return registry.New(), nil
	}
	reg, err := registry.LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Component catalog not found, credential and nested config checks are off", "file", path)
		return registry.New(), nil
	}
	return reg, err
}

// OpenDatabase runs the embedded migrations for the configured database type
// and returns an open connection pool.
func OpenDatabase() (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch config.GetSystemSettingString(config.DATABASE_TYPE) {
	case config.DATABASE_TYPE_POSTGRES:
		db, err = setupPostgresDatabase()
	case config.DATABASE_TYPE_SQLLITE:
		db, err = setupSqlLiteDatabase()
	case config.DATABASE_TYPE_MYSQL:
		db, err = setupMysqlDatabase()
	default:
		return nil, fmt.Errorf("%s must be set to one of the following values: POSTGRES, MYSQL, SQLLITE", config.DATABASE_TYPE)
	}
	if err != nil {
		return nil, err
	}
	repository.ConfigurePool(db)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func setupPostgresDatabase() (*sql.DB, error) {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		return nil, fmt.Errorf("%s must be set when using the POSTGRES database type", config.DATABASE_URL)
	}
	slog.Info("Using Postgres database")
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("postgres", dbURL); err != nil {
		return nil, fmt.Errorf("db migration failed: %w", err)
	}
	return sql.Open("postgres", dbURL)
}

func setupSqlLiteDatabase() (*sql.DB, error) {
	fileName := config.GetSystemSettingString(config.DATABASE_SQLLITE_FILE_NAME)
	if fileName == "" {
		return nil, fmt.Errorf("%s must be set", config.DATABASE_SQLLITE_FILE_NAME)
	}
	slog.Info("Using SQLite database", "file", fileName)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("sqllite3", "sqlite3://"+fileName); err != nil {
		return nil, fmt.Errorf("db migration failed: %w", err)
	}
	return sql.Open("sqlite3", fileName)
}

func setupMysqlDatabase() (*sql.DB, error) {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		return nil, fmt.Errorf("%s must be set when using the MYSQL database type", config.DATABASE_URL)
	}
	if !strings.HasPrefix(dbURL, "mysql://") {
		return nil, fmt.Errorf("%s must start with 'mysql://' for MySQL", config.DATABASE_URL)
	}
	// DATETIME columns only scan into time.Time with parseTime
	if !strings.Contains(dbURL, "parseTime=true") {
		return nil, fmt.Errorf("%s must contain 'parseTime=true' for MySQL", config.DATABASE_URL)
	}
	slog.Info("Using MySQL database")
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("mysql", dbURL); err != nil {
		return nil, fmt.Errorf("db migration failed: %w", err)
	}
	return sql.Open("mysql", strings.TrimPrefix(dbURL, "mysql://"))
}

func runMigrationsFromEmbed(migrationsPath string, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, migrationsPath)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SetupLogger installs a tint handler on stderr at FLOWLINT_LOG_LEVEL.
func SetupLogger() {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(config.GetSystemSettingString(config.LOG_LEVEL))); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
