package main

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

	"nexo-frontend/config"
	"nexo-frontend/internal/client"
	"nexo-frontend/internal/handler"
	appmiddleware "nexo-frontend/internal/middleware"
	"nexo-frontend/internal/renderer"
	"nexo-frontend/utils/logger"
	"nexo-frontend/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
	}

	// Initialize structured logger
	logger.Init(otelCfg.Enabled)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"api_url", cfg.APIURL,
		"port", cfg.Port,
		"api_timeout", cfg.APITimeout)

	// Backend API client and auth middleware
	api := client.New(cfg.APIURL, cfg.APITimeout)
	authn := appmiddleware.NewAuthenticator(api, cfg.TokenName)

	oauthProviders := map[string]string{}
	if cfg.GoogleClientID != "" {
		oauthProviders["google"] = cfg.GoogleClientID
	}

	// Area handlers
	handlers := handler.Handlers{
		Auth:     handler.NewAuthHandler(api, oauthProviders),
		OAuth:    handler.NewOAuthHandler(api, cfg.GoogleClientID, cfg.GoogleRedirectURL, cfg.OAuthStateSecret, oauthProviders),
		General:  handler.NewGeneralHandler(api),
		Users:    handler.NewUsersHandler(api),
		Platform: handler.NewPlatformHandler(api),
		Company:  handler.NewCompanyHandler(api),
		Alerts:   handler.NewAlertsHandler(),
	}

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	views, err := renderer.New()
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse views", "error", err)
		os.Exit(1)
	}
	e.Renderer = views

	// Forms may tunnel PUT/DELETE through a _method field.
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders())

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Rate limiters per endpoint group
	limits := handler.Limits{
		Credentials: appmiddleware.NewRateLimiter(10, 5), // 10 req/min
		API:         appmiddleware.NewRateLimiter(120, 20),
	}

	handler.Register(e, authn, handlers, limits)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting nexo-frontend server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
