// Command axwatch runs the accessibility change-watch service: a Chrome
// driver plus snapshot session exposed over an HTTP API, or over MCP stdio
// when MCP_TRANSPORT=stdio.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/axwatch/archive"
	"github.com/hazyhaar/axwatch/browser"
	"github.com/hazyhaar/axwatch/config"
	"github.com/hazyhaar/axwatch/session"
)

const version = "0.1.0"

func main() {
	logger := setupLogger()

	cfg, err := config.Load(os.Getenv("AXWATCH_CONFIG"))
	if err != nil {
		logger.Error("axwatch: load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		logger.Error("axwatch: open archive", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("axwatch: archive open", "path", cfg.Archive.Path)

	mgr := browser.NewManager(browser.Config{
		RemoteURL:       cfg.Browser.Remote,
		MemoryLimit:     cfg.Browser.MemoryLimit,
		RecycleInterval: cfg.Browser.RecycleInterval,
		Logger:          logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		logger.Error("axwatch: start browser", "error", err)
		os.Exit(1)
	}
	defer mgr.Close()

	driver := browser.NewDriver(mgr, logger)
	defer driver.Close()

	sess := session.New(driver,
		session.WithLogger(logger),
		session.WithSink(store),
	)
	logger.Info("axwatch: session started", "session_id", sess.ID())

	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		runMCP(ctx, logger, sess, driver)
		return
	}

	runHTTP(ctx, logger, cfg, sess, driver, store)
}

func runMCP(ctx context.Context, logger *slog.Logger, sess *session.Session, driver *browser.Driver) {
	srv := mcp.NewServer(&mcp.Implementation{Name: "axwatch", Version: version}, nil)
	sess.RegisterMCP(srv)
	driver.RegisterMCP(srv)

	logger.Info("axwatch: serving MCP over stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("axwatch: mcp server", "error", err)
		os.Exit(1)
	}
}

func runHTTP(ctx context.Context, logger *slog.Logger, cfg *config.Config, sess *session.Session, driver *browser.Driver, store *archive.Store) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(logger, cfg.Server.AuthToken, sess, driver, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("axwatch: http listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("axwatch: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("axwatch: shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("axwatch: http server", "error", err)
			os.Exit(1)
		}
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
