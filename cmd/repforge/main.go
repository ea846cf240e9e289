package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repforge/internal/catalog"
	"github.com/claude/repforge/internal/config"
	"github.com/claude/repforge/internal/ingest/alpha"
	"github.com/claude/repforge/internal/mcp"
	"github.com/claude/repforge/internal/server"
	"github.com/claude/repforge/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpStdio := flag.Bool("mcp", false, "serve the Model Context Protocol over stdio instead of HTTP")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if *mcpStdio {
		// stdout carries the MCP stream; logs go to stderr.
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	log.Info("RepForge starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Load reference data
	cat, err := catalog.Load(cfg.Engine.CatalogDir)
	if err != nil {
		log.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	if _, err := db.GetOrCreateUser(ctx, "default", "Default Lifter"); err != nil {
		log.Error("failed to seed default user", "error", err)
		os.Exit(1)
	}

	if *mcpStdio {
		mcpSrv := mcp.New(db, cat, Version, log)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Create providers and HTTP server
	alphaProvider := alpha.NewProvider(db, cat, cfg.Engine.LookbackDays, log)
	srv := server.New(db, cat, alphaProvider, cfg.Auth.APIKey, cfg.Engine.LookbackDays, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
