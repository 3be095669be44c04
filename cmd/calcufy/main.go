// Command calcufy runs the calculator MCP server over stdio, HTTP or both.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"golang.org/x/sync/errgroup"

	mcp "github.com/SomSamantray/calcufy-calculator"
	"github.com/SomSamantray/calcufy-calculator/config"
	"github.com/SomSamantray/calcufy-calculator/interaction"
	"github.com/SomSamantray/calcufy-calculator/widget"
)

const (
	serverName        = "calcufy-calculator"
	serverVersion     = "1.0.0"
	serverDescription = "Interactive Calculator MCP Server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "calcufy: invalid configuration:\n%v\n", err)
		os.Exit(2)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	server, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, server, logger, os.Stdin, os.Stdout))
}

// newServer loads the widgets and binds the calculator to a fresh server
func newServer(cfg config.Config, logger *slog.Logger) (*mcp.Server, error) {
	registry, err := widget.Load(widgetSource(cfg))
	if err != nil {
		return nil, fmt.Errorf("loading widgets: %w", err)
	}

	router, err := interaction.NewRouter(registry)
	if err != nil {
		return nil, err
	}

	server := mcp.NewServer(serverName, serverVersion).
		SetDescription(serverDescription).
		SetLogger(logger).
		Use(mcp.RequestIDMiddleware(), mcp.LoggingMiddleware(logger))
	interaction.Register(server, router)

	logger.Info("widgets loaded", "count", registry.Len(), "source", cfg.AssetSource)
	return server, nil
}

func widgetSource(cfg config.Config) widget.Source {
	if cfg.AssetSource == config.AssetsLocal {
		return widget.NewLocalSource(cfg.AssetsDir)
	}
	return widget.NewRemoteSource(cfg.BaseURL)
}

func webConfig(cfg config.Config) mcp.WebConfig {
	web := mcp.DefaultWebConfig()
	web.Host = cfg.Host
	web.Port = cfg.Port
	web.AuthToken = cfg.AuthToken
	web.EnableCORS = cfg.CORS
	web.MaxRequestSize = cfg.MaxRequestBytes
	return web
}

// run serves the configured transports until a signal arrives or every
// transport has stopped, and returns the process exit code. A failing
// transport stops the others.
func run(cfg config.Config, server *mcp.Server, logger *slog.Logger, stdin io.Reader, stdout io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	operations := map[string]gfshutdown.Operation{
		"transports": func(context.Context) error {
			cancel()
			return nil
		},
	}

	var web *mcp.WebTransport
	if cfg.ServesHTTP() {
		web = mcp.NewWebTransport(server, webConfig(cfg))
		g.Go(web.ListenAndServe)
		operations["web"] = web.Shutdown
	}
	if cfg.ServesStdio() {
		g.Go(func() error {
			return server.Run(gctx, stdin, stdout)
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, operations)

	select {
	case code := <-wait:
		logger.Info("shutdown complete", "code", code)
		return code
	case err := <-done:
		code := 0
		if err != nil {
			logger.Error("transport failed", "error", err)
			code = 1
		}
		if web != nil {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancelShutdown()
			if err := web.Shutdown(shutdownCtx); err != nil {
				logger.Error("web transport shutdown failed", "error", err)
			}
		}
		logger.Info("transports stopped", "code", code)
		return code
	}
}
