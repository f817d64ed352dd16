package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/bytes"
	"go.uber.org/zap"

	"github.com/spam-detector/webui/internal/api"
	"github.com/spam-detector/webui/internal/client"
	"github.com/spam-detector/webui/internal/config"
	"github.com/spam-detector/webui/internal/logging"
	"github.com/spam-detector/webui/internal/parser"
	"github.com/spam-detector/webui/internal/session"
	"github.com/spam-detector/webui/internal/storage"
	"github.com/spam-detector/webui/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the XML or YAML config file")
	flag.Parse()

	if *configPath == "" {
		// Default to a config next to the executable
		exePath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		*configPath = filepath.Join(filepath.Dir(exePath), config.DefaultConfigFile)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logging.NewLogger(cfg.Advanced)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	maxUpload, err := bytes.Parse(cfg.Server.BodyLimit)
	if err != nil {
		return fmt.Errorf("invalid body limit %q: %w", cfg.Server.BodyLimit, err)
	}

	// Uploads live in memory for the lifetime of their session
	fileStore := storage.NewMemoryStore(maxUpload)
	sessionMgr := session.NewManager(fileStore, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(cfg.SessionTimeout()); n > 0 {
					log.Info("expired sessions removed", zap.Int("count", n))
				}
			}
		}
	}()

	apiClient := client.New(cfg.API.BaseURL, cfg.APITimeout(), client.WithLogger(log.Named("client")))

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, renderer)
	api.ExposeErrorDetails = strings.EqualFold(cfg.Advanced.LogLevel, "debug")

	if cfg.Advanced.EnableRequestLogging {
		e.Use(logging.RequestLogger(log))
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		// Predictions must be able to use the full API timeout
		Timeout:      cfg.APITimeout() + 5*time.Second,
		ErrorMessage: "Request timeout - the prediction API took too long",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/metrics")
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if err := web.RegisterStaticRoutes(e); err != nil {
		return fmt.Errorf("failed to register static routes: %w", err)
	}

	deps := &api.Dependencies{
		Client:   apiClient,
		Store:    fileStore,
		Sessions: sessionMgr,
		Limits: parser.Limits{
			MaxRows:       cfg.Limits.MaxRows,
			MaxTextLength: cfg.Limits.MaxTextLength,
			PreviewRows:   cfg.Limits.PreviewRows,
		},
		Version:       Version,
		APIBaseURL:    apiClient.BaseURL(),
		Logger:        log,
		CookieName:    cfg.Session.CookieName,
		SessionMaxAge: cfg.SessionTimeout(),
		EnableMetrics: cfg.Advanced.EnableMetrics,
	}
	api.RegisterRoutes(e, api.NewHandlers(deps), deps)

	// Configure server with settings from the config file
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(*configPath, cfg)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("address", s.Addr), zap.String("api", apiClient.BaseURL()))
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	return nil
}

func printBanner(configPath string, cfg *config.AppConfig) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Spam Detector Web UI                            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  API:       %-46s║\n", cfg.API.BaseURL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
	fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
}
