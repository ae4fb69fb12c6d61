package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jo-hoe/goclipart/internal/backend"
	"github.com/jo-hoe/goclipart/internal/common"
	"github.com/jo-hoe/goclipart/internal/core"
	"github.com/jo-hoe/goclipart/internal/frontend"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the clip-art gallery web interface",
		Long: `Starts the gallery on the configured port. The Activities directory is
scanned once in the background after the page is first available.`,
		Example: `  # Start with ./config.yaml
  clipart serve

  # Start on a custom port
  clipart serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				config.Port = port
			}
			return serve(cmd.Context(), config)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides config)")

	return cmd
}

func serve(ctx context.Context, config *core.ServiceConfig) error {
	coreService, err := core.NewCoreService(config, core.Dependencies{})
	if err != nil {
		return err
	}
	defer func() {
		if err := coreService.Close(); err != nil {
			slog.Error("Core service close error", "err", err)
		}
	}()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	if err := coreService.Start(loopCtx); err != nil {
		return err
	}

	server := defineServer()
	backend.NewAPIService(config, coreService).SetRoutes(server)
	frontend.NewFrontendService(config, coreService).SetRoutes(server)

	addr := fmt.Sprintf(":%d", config.Port)

	// Start HTTP server in a goroutine to allow graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Clipart gallery available", "addr", addr, "url", "http://localhost"+addr, "root", config.ActivitiesRoot)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "err", err)
		return err
	}

	stopLoop()
	<-coreService.Done()
	slog.Info("Server stopped")
	return nil
}

func defineServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Skip the probe endpoint so health checks do not flood the log
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/probe"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRoutePath: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"remoteIP", v.RemoteIP,
			}
			if v.Error != nil {
				slog.Error("Request: failed", append(attrs, "err", v.Error)...)
				return nil
			}
			slog.Debug("Request: handled", attrs...)
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = &common.GenericEchoValidator{}

	return e
}
