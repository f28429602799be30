package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/codex-k8s/browser-mcp-server/internal/dsl"
	"github.com/codex-k8s/browser-mcp-server/internal/http/health"
	"github.com/codex-k8s/browser-mcp-server/internal/timeutil"
)

// App controls the HTTP server lifecycle: the MCP endpoint, the
// extension WebSocket endpoint, and the health surface.
type App struct {
	baseCtx         context.Context
	server          *http.Server
	health          *health.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New initializes the HTTP server with the MCP, WebSocket and health routes.
func New(baseCtx context.Context, serverCfg dsl.ServerConfig, mcpHandler, wsHandler http.Handler, healthHandler *health.Handler, logger *slog.Logger, shutdownTimeout time.Duration) (*App, error) {
	if mcpHandler == nil || wsHandler == nil {
		return nil, fmt.Errorf("handler is nil")
	}
	if baseCtx == nil {
		return nil, fmt.Errorf("base context is nil")
	}
	if healthHandler == nil {
		return nil, fmt.Errorf("health handler is nil")
	}

	readTimeout := timeutil.ParseDurationOrDefault(serverCfg.HTTP.ReadTimeout, 15*time.Second)
	writeTimeout := timeutil.ParseDurationOrDefault(serverCfg.HTTP.WriteTimeout, 0)
	idleTimeout := timeutil.ParseDurationOrDefault(serverCfg.HTTP.IdleTimeout, 60*time.Second)

	mux := http.NewServeMux()
	mux.Handle(serverCfg.HTTP.Path, mcpHandler)
	mux.Handle(serverCfg.HTTP.WSPath, wsHandler)
	mux.HandleFunc("/healthz", healthHandler.Healthz)
	mux.HandleFunc("/readyz", healthHandler.Readyz)
	mux.HandleFunc("/status", healthHandler.Status)

	srv := &http.Server{
		Addr:        serverCfg.HTTP.Listen,
		Handler:     mux,
		ReadTimeout: readTimeout,
		// WriteTimeout stays off by default: a tool call legitimately
		// holds the response open for the full agent call budget.
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	if shutdownTimeout == 0 {
		shutdownTimeout = timeutil.ParseDurationOrDefault(serverCfg.ShutdownTimeout, 10*time.Second)
	}

	return &App{
		baseCtx:         baseCtx,
		server:          srv,
		health:          healthHandler,
		logger:          logger,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.health.SetReady()
		if a.logger != nil {
			a.logger.Info("http server started", "addr", a.server.Addr)
		}
		errCh <- a.server.ListenAndServe()
	}()

	for {
		select {
		case <-ctx.Done():
			if a.logger != nil {
				a.logger.Info("shutdown requested")
			}
			return a.shutdown()
		case err := <-errCh:
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			if a.logger != nil {
				a.logger.Error("http server error", "error", err)
			}
			return err
		}
	}
}

func (a *App) shutdown() error {
	a.health.SetNotReady()
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
