package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecocollect/internal/api"
	"ecocollect/internal/config"
	"ecocollect/internal/modules/assignment"
	"ecocollect/internal/modules/orders"
	"ecocollect/internal/modules/scans"
	"ecocollect/internal/modules/subscription"
	"ecocollect/internal/modules/tracking"
	"ecocollect/internal/modules/users"
	"ecocollect/migrations"
	"ecocollect/pkg/email"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	// 2. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		logger.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		logger.Fatalf("Unable to ping database: %v", err)
	}
	logger.Info("Successfully connected to the database")

	// 3. --- Schema Migrations ---
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatalf("Unable to set migration dialect: %v", err)
	}
	migrationDB := stdlib.OpenDBFromPool(dbPool)
	if err := goose.Up(migrationDB, "."); err != nil {
		logger.Fatalf("Unable to run migrations: %v", err)
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warnf("Closing migration connection: %v", err)
	}

	// 4. --- Outbound Email ---
	// The server stays up without SES credentials; notifications are
	// simply skipped.
	var sender email.ServiceInterface
	if sesSender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom); err != nil {
		logger.Warnf("Email sending disabled: %v", err)
	} else {
		sender = sesSender
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		logger.Fatalf("Unable to parse email templates: %v", err)
	}

	googleOAuthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	// 5. --- Dependency Injection (Wiring everything up) ---
	// --- Users Module ---
	userRepo := users.NewRepository(dbPool)
	userService := users.NewService(userRepo, cfg.JWTSecret, googleOAuthConfig, logger)
	userHandler := users.NewHandler(userService)

	// --- Scans Module ---
	scanRepo := scans.NewRepository(dbPool)
	scanService := scans.NewService(scanRepo, logger)
	scanHandler := scans.NewHandler(scanService)

	// --- Subscription Gate ---
	gateRepo := subscription.NewRepository(dbPool)
	gate := subscription.NewGate(gateRepo, logger)

	// --- Orders Module ---
	orderRepo := orders.NewRepository(dbPool)
	notifier := email.NewNotifier(sender, templates, userRepo, orderRepo, logger)
	orderService := orders.NewService(orderRepo, scanService, gate, userRepo, notifier, logger)
	orderHandler := orders.NewHandler(orderService)

	// --- Assignment Module ---
	assignmentRepo := assignment.NewRepository(dbPool)
	assignmentService := assignment.NewService(assignmentRepo, notifier, logger)
	assignmentHandler := assignment.NewHandler(assignmentService)

	// --- Tracking Module ---
	trackingRepo := tracking.NewRepository(dbPool)
	trackingService := tracking.NewService(trackingRepo, orderRepo, logger)
	trackingHandler := tracking.NewHandler(trackingService)

	// 6. --- HTTP Server ---
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.SetupRoutes(e,
		userHandler,
		scanHandler,
		orderHandler,
		assignmentHandler,
		trackingHandler,
		cfg.JWTSecret,
	)

	// 7. --- Start Server with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server stopped unexpectedly: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exiting")
}
