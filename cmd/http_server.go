package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/smartinstall/field-reports/internal"
	"github.com/smartinstall/field-reports/internal/auth"
	authpg "github.com/smartinstall/field-reports/internal/auth/postgres"
	"github.com/smartinstall/field-reports/internal/catalog"
	catalogpg "github.com/smartinstall/field-reports/internal/catalog/postgres"
	"github.com/smartinstall/field-reports/internal/core/events"
	"github.com/smartinstall/field-reports/internal/document"
	documentpg "github.com/smartinstall/field-reports/internal/document/postgres"
	"github.com/smartinstall/field-reports/internal/notification"
	"github.com/smartinstall/field-reports/internal/report"
	reportpg "github.com/smartinstall/field-reports/internal/report/postgres"
	"github.com/smartinstall/field-reports/internal/site"
	sitepg "github.com/smartinstall/field-reports/internal/site/postgres"
	"github.com/smartinstall/field-reports/internal/transport/rest"
	"github.com/smartinstall/field-reports/internal/user"
	userpg "github.com/smartinstall/field-reports/internal/user/postgres"
	"github.com/smartinstall/field-reports/pkg/logger"
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
	Notifier *notification.Notifier
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
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
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if deps.Notifier != nil {
			deps.Notifier.Shutdown()
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the pgx connection pool instead of opening its own
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	if err := os.MkdirAll(config.Uploads.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	bus := events.NewEventBus(log)

	// services
	userService := user.NewService(userpg.NewRepository(gormDB))
	catalogService := catalog.NewService(catalogpg.NewRepository(gormDB))
	siteService := site.NewService(sitepg.NewRepository(gormDB))
	reportService := report.NewService(reportpg.NewReportRepository(gormDB), catalogService, bus, log)
	documentService := document.NewService(
		documentpg.NewRepository(gormDB),
		document.NewUploader(config.Uploads.Dir, config.Uploads.MaxFileSize),
	)

	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	validator := auth.NewInitDataValidator(
		config.Telegram.BotToken,
		config.Security.InitDataMaxAge,
		config.Security.SkipInitDataValidation,
	)
	authService := auth.NewService(authpg.NewRepository(gormDB), tokenGen, validator)

	var notifier *notification.Notifier
	if config.Telegram.NotifyEnabled {
		notifier = notification.NewNotifier(notification.Config{
			BotToken:    config.Telegram.BotToken,
			APIBaseURL:  config.Telegram.APIBaseURL,
			SendTimeout: config.Telegram.SendTimeout,
			MaxWorkers:  config.Telegram.MaxWorkers,
			QueueSize:   config.Telegram.QueueSize,
		}, log)

		subscriber := notification.NewSubscriber(notifier, userService, config.Telegram.AdminChatID, log)
		subscriber.Register(bus)
	}

	exporter := report.NewExporter(
		reportpg.NewReportRepository(gormDB),
		&exportDirectory{users: userService, sites: siteService, catalog: catalogService},
	)

	handlers := rest.Handlers{
		Auth:     auth.NewHandler(authService),
		User:     user.NewHandler(userService),
		Report:   report.NewHandler(reportService, exporter),
		Catalog:  catalog.NewHandler(catalogService),
		Site:     site.NewHandler(siteService),
		Document: document.NewHandler(documentService),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, handlers, config.Uploads.Dir, log)

	return &Dependencies{
		Config:   config,
		Logger:   log,
		DB:       db,
		Router:   router,
		Notifier: notifier,
	}, nil
}

// exportDirectory resolves names for XLSX exports from the user, site
// and catalog services.
type exportDirectory struct {
	users   *user.Service
	sites   *site.Service
	catalog *catalog.Service
}

func (d *exportDirectory) UserInfo(id int64) (*report.UserInfo, error) {
	u, err := d.users.GetByID(id)
	if err != nil {
		if err == user.ErrUserNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &report.UserInfo{ID: u.ID, Name: u.Name, Role: u.Role}, nil
}

func (d *exportDirectory) SiteInfo(id int64) (*report.SiteInfo, error) {
	return d.sites.SiteInfo(id)
}

func (d *exportDirectory) ItemNames() (map[int64]string, error) {
	return d.catalog.ItemNames()
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
