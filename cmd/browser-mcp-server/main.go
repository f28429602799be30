package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/browser-mcp-server/configs"
	"github.com/codex-k8s/browser-mcp-server/internal/app"
	"github.com/codex-k8s/browser-mcp-server/internal/audit"
	"github.com/codex-k8s/browser-mcp-server/internal/bridge"
	"github.com/codex-k8s/browser-mcp-server/internal/config"
	"github.com/codex-k8s/browser-mcp-server/internal/dsl"
	"github.com/codex-k8s/browser-mcp-server/internal/http/health"
	"github.com/codex-k8s/browser-mcp-server/internal/log"
	"github.com/codex-k8s/browser-mcp-server/internal/ratelimit"
	"github.com/codex-k8s/browser-mcp-server/internal/render"
	"github.com/codex-k8s/browser-mcp-server/internal/resources"
	"github.com/codex-k8s/browser-mcp-server/internal/rpc"
	"github.com/codex-k8s/browser-mcp-server/internal/runtime"
	"github.com/codex-k8s/browser-mcp-server/internal/startup"
	"github.com/codex-k8s/browser-mcp-server/internal/timeutil"
	"github.com/codex-k8s/browser-mcp-server/internal/tools"
)

func main() {
	httpMode := flag.Bool("http", false, "Serve MCP over HTTP even when PORT is unset")
	stdioMode := flag.Bool("stdio", false, "Serve MCP over stdio even when PORT is set")
	port := flag.Int("port", 0, "HTTP listen port (overrides config and PORT)")
	configPath := flag.String("config", "", "Path to YAML config (defaults to the embedded config)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.LogLevel)

	path := *configPath
	if path == "" {
		path = cfg.ConfigPath
	}
	var rendered []byte
	if path != "" {
		rendered, err = render.RenderFile(path)
	} else {
		var raw []byte
		raw, err = configs.Default()
		if err == nil {
			rendered, err = render.RenderBytes("default.yaml", raw)
		}
	}
	if err != nil {
		logger.Error("render config failed", "error", err)
		os.Exit(1)
	}

	dslCfg, err := dsl.Load(rendered)
	if err != nil {
		logger.Error("parse config failed", "error", err)
		os.Exit(1)
	}

	transport := resolveTransport(*httpMode, *stdioMode, dslCfg.Server.Transport, cfg.Port)
	listen := resolveListen(dslCfg.Server.HTTP.Listen, cfg.Port, *port)
	dslCfg.Server.HTTP.Listen = listen

	callTimeout := timeutil.ParseDurationOrDefault(dslCfg.Server.CallTimeout, bridge.DefaultCallTimeout)

	agent := bridge.New(logger, callTimeout)
	defer agent.Close()

	registry, err := tools.NewBrowserRegistry()
	if err != nil {
		logger.Error("build tool registry failed", "error", err)
		os.Exit(1)
	}
	resourceRegistry, err := resources.NewBrowserRegistry()
	if err != nil {
		logger.Error("build resource registry failed", "error", err)
		os.Exit(1)
	}

	dispatcher := tools.NewDispatcher(registry, agent, logger, audit.New(logger))

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	go func() {
		sig := <-sigCh
		logger.Warn("shutdown requested", "signal", sig.String())
		cancel()
	}()

	if err := startup.Run(baseCtx, dslCfg.Server.StartupHooks, logger); err != nil {
		logger.Error("startup hooks failed", "error", err)
		os.Exit(1)
	}

	mcpHandler := rpc.NewHandler(
		dispatcher,
		resourceRegistry,
		agent,
		ratelimit.New(dslCfg.Server.RateLimit.PerMinute),
		logger,
		rpc.ServerInfo{Name: dslCfg.Server.Name, Version: dslCfg.Server.Version},
	)
	healthHandler := health.New(dslCfg.Server.Version, agent.HasConnection)

	application, err := app.New(baseCtx, dslCfg.Server, mcpHandler, agent.Handler(), healthHandler, logger, cfg.ShutdownTimeout)
	if err != nil {
		logger.Error("build http server failed", "error", err)
		os.Exit(1)
	}

	// The extension endpoint and the health surface run in both modes;
	// stdio mode adds the line transport on top.
	if transport == "stdio" {
		server := runtime.Builder{
			Logger:     logger,
			Dispatcher: dispatcher,
			Resources:  resourceRegistry,
			Agent:      agent,
			Name:       dslCfg.Server.Name,
			Version:    dslCfg.Server.Version,
		}.Build()
		go func() {
			if err := server.Run(baseCtx, &mcp.StdioTransport{}); err != nil && baseCtx.Err() == nil {
				logger.Error("stdio transport error", "error", err)
			}
			cancel()
		}()
	}

	if err := application.Run(baseCtx); err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// resolveTransport picks the MCP transport: flags first, then the
// config file, then PORT presence (deployments set PORT; local MCP
// clients spawn the stdio mode).
func resolveTransport(httpFlag, stdioFlag bool, configured string, envPort int) string {
	switch {
	case httpFlag:
		return "http"
	case stdioFlag:
		return "stdio"
	}
	if configured != "" {
		return configured
	}
	if envPort > 0 {
		return "http"
	}
	return "stdio"
}

// resolveListen applies the port precedence: -port flag, PORT env,
// config listen address.
func resolveListen(configured string, envPort, flagPort int) string {
	if flagPort > 0 {
		return fmt.Sprintf(":%d", flagPort)
	}
	if envPort > 0 {
		return fmt.Sprintf(":%d", envPort)
	}
	return configured
}
