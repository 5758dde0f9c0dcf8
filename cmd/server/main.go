package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"auction-analyzer/backend/internal/api"
	"auction-analyzer/backend/internal/app"
	"auction-analyzer/backend/internal/auth"
	"auction-analyzer/backend/internal/config"
	"auction-analyzer/backend/internal/devcert"
	"auction-analyzer/backend/internal/logging"
	"auction-analyzer/backend/internal/mcp"
	"auction-analyzer/backend/internal/progress"
	"auction-analyzer/backend/internal/repository"
	"auction-analyzer/backend/internal/services"
)

// maxUploadFiles bounds the request body to this many maximum-size files.
const maxUploadFiles = 8

func main() {
	ctx := context.Background()

	// Parse command line flags
	configFile := flag.String("config", "", "Path to config.yaml")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Configuration loading failed: %v", err)
	}

	// Initialize logging
	logger := logging.NewLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"okta_domain", cfg.Auth.OktaDomain,
		"inference_model", cfg.Inference.Model,
		"upload_dir", cfg.Upload.Dir,
	)

	// Initialize database connection
	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer dbPool.Close()

	store := repository.NewPostgresAnalysisStore(dbPool)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("Failed to apply schema", "error", err)
		log.Fatalf("Schema migration failed: %v", err)
	}
	logger.Info("Database connected")

	if err := os.MkdirAll(cfg.Upload.Dir, 0o750); err != nil {
		log.Fatalf("Upload dir creation failed: %v", err)
	}

	// Initialize service layer
	hub := progress.NewHub(progress.WithLogger(logger.With("component", "progress")))
	orchestrator := app.NewWorkflow(cfg, logger, hub)
	analysisService := services.NewAnalysisService(store, orchestrator, hub, logger.With("component", "analysis"))

	logger.Info("Service layer initialized")

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler(logger)

	// Middleware
	e.Use(otelecho.Middleware("auction-analyzer"))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Upload.MaxFileMB*maxUploadFiles)))

	// Initialize authentication
	authz, err := auth.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize auth", "error", err)
		log.Fatalf("auth initialization failed: %v", err)
	}

	// Register auth handlers
	e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
	e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
	e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))

	// Mount REST API handlers
	apiServer := api.NewServer(analysisService, hub, logger.With("component", "api"), cfg.Upload.Dir, cfg.Upload.MaxFileMB)
	api.RegisterPublic(e, apiServer)
	apiGroup := e.Group("/api/v1")
	apiGroup.Use(echo.WrapMiddleware(authz.RequireAuth))
	api.RegisterHandlers(apiGroup, apiServer)

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	if cfg.Server.EnableMCP {
		mcpServer := mcp.NewServer(analysisService)
		mcpHandlers := http.NewServeMux()
		mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer(), authz.RequireAuth)
		e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

		logger.Info("MCP protocol handlers mounted")
	}

	// Create HTTP server. WriteTimeout stays zero for the event stream.
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           e,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	tlsCfg := cfg.Server.TLS
	if tlsCfg.Enable {
		generated, err := devcert.Ensure(tlsCfg.CertFile, tlsCfg.KeyFile, tlsCfg.Hostnames, time.Now())
		if err != nil {
			log.Fatalf("TLS certificate unavailable: %v", err)
		}
		if generated {
			logger.Warn("generated self-signed certificate", "cert_file", tlsCfg.CertFile, "hostnames", tlsCfg.Hostnames)
		}
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", cfg.Server.Addr, "tls", tlsCfg.Enable)
		if tlsCfg.Enable {
			serverErrors <- server.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		logger.Info("Shutdown signal received", "signal", sig.String())

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}

		logger.Info("Server stopped gracefully")
	}
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
