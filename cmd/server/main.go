package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/bayesnet/internal/api"
	"github.com/gyaneshwarpardhi/bayesnet/internal/config"
	"github.com/gyaneshwarpardhi/bayesnet/internal/engine"
	"github.com/gyaneshwarpardhi/bayesnet/internal/history"
	"github.com/gyaneshwarpardhi/bayesnet/internal/networks"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/bayesnet.yaml", "Path to service YAML config")
	flag.Parse()

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	// ── Build initial network ────────────────────────────────────────────────
	reg := networks.Builtin()
	net, err := networks.Build(cfg.Network, reg)
	if err != nil {
		slog.Error("failed to build network", "err", err)
		os.Exit(1)
	}
	slog.Info("network built", "nodes", net.Len(), "builtin", cfg.Network.Builtin)

	// ── History ──────────────────────────────────────────────────────────────
	var (
		store *history.Store
		rec   engine.Recorder
		hist  api.HistoryReader
	)
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			slog.Error("failed to open history store", "path", cfg.History.Path, "err", err)
			os.Exit(1)
		}
		defer store.Close()
		rec, hist = store, store
	}

	// ── Engine ───────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, net, cfg.Engine, rec)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	// Engine tunables are fixed at startup; only the network is swapped.
	loader.OnChange(func(newCfg *config.ServiceConfig) error {
		if err := config.Validate(newCfg); err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		newNet, err := networks.Build(newCfg.Network, reg)
		if err != nil {
			return fmt.Errorf("network build failed: %w", err)
		}
		eng.SwapNetwork(newNet)
		slog.Info("network hot-reloaded", "nodes", newNet.Len())
		return nil
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(eng, api.Options{
		Reloader:       loader,
		History:        hist,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: time.Duration(cfg.Engine.QueryTimeoutMs)*time.Millisecond + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown()
	cancel()
	slog.Info("goodbye")
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
