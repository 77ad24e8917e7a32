package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/invoice-workbench/backend/internal/api"
	"github.com/invoice-workbench/backend/internal/config"
	"github.com/invoice-workbench/backend/internal/extraction"
	"github.com/invoice-workbench/backend/internal/queue"
	"github.com/invoice-workbench/backend/internal/session"
	"github.com/invoice-workbench/backend/internal/storage"
	"github.com/invoice-workbench/backend/internal/validation"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "InvoiceWorkbench.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Initialize storage backend
	fileStore, err := newFileStore(cfg)
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Load validation rules; missing file falls back to defaults
	rules := validation.DefaultRules()
	if cfg.Advanced.ValidationRulesFile != "" {
		loaded, err := validation.LoadRules(cfg.Advanced.ValidationRulesFile)
		if err != nil {
			fmt.Printf("Warning: failed to load validation rules, using defaults: %v\n", err)
		} else {
			rules = loaded
			fmt.Printf("Validation rules loaded from %s\n", cfg.Advanced.ValidationRulesFile)
		}
	}

	// Initialize workspace manager with a DuckDB-backed review queue
	queueDir := cfg.Storage.QueueDirectory
	sessionMgr := session.NewManager(rules, func(workspaceID string) (*queue.Store, error) {
		return queue.NewStore(queueDir, workspaceID)
	})
	defer sessionMgr.Close()

	// Start background workspace cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupIdle(time.Duration(cfg.Processing.WorkspaceTimeoutMinutes) * time.Minute)
		}
	}()

	// Initialize extraction service client
	extractor := extraction.NewClient(cfg.Extraction.ServiceURL,
		time.Duration(cfg.Extraction.TimeoutMinutes)*time.Minute)

	// Initialize API handlers
	handlers := api.NewHandlers(&api.Dependencies{
		Store:         fileStore,
		Sessions:      sessionMgr,
		Extractor:     extractor,
		MaxBatchFiles: cfg.Extraction.MaxBatchFiles,
		AllowedExts:   cfg.AllowedExtensions(),
		Version:       Version,
	})

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/status") ||
				strings.HasSuffix(path, "/progress") ||
				path == "/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/extract") ||
				strings.Contains(path, "/progress") ||
				strings.Contains(path, "/ws/") ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
		ErrorMessage: "Request timeout - query took too long",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Accept") == "text/event-stream"
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
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Workspace-ID"},
		}))
	}

	// Routes
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Invoice Workbench Server                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Storage:    %-45s║\n", cfg.Storage.Backend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Extractor: %-46s║\n", cfg.Extraction.ServiceURL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}

// newFileStore picks the configured storage backend.
func newFileStore(cfg *config.AppConfig) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return storage.NewLocalStore(cfg.GetUploadDir())
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
			UseSSL:    cfg.Storage.S3UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
