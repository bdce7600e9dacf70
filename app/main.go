package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/news-comb/app/api"
	"github.com/lysyi3m/news-comb/app/catalog"
	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/credentials"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/policy"
	"github.com/lysyi3m/news-comb/app/ratelimit"
	"github.com/lysyi3m/news-comb/app/tasks"
	"github.com/lysyi3m/news-comb/app/upstream"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting News Comb server", "version", appCfg.Version)

	fallbackCatalog, err := loadCatalog(appCfg.CatalogFile)
	if err != nil {
		fatal("Failed to load fallback catalog", err)
	}
	slog.Info("Fallback catalog loaded",
		"version", fallbackCatalog.Version(),
		"records", fallbackCatalog.Len(),
		"categories", len(fallbackCatalog.Categories()))

	pool, err := credentials.New(appCfg.APIKeys)
	if err != nil {
		fatal("Failed to build credential pool", err)
	}
	slog.Info("Credential pool ready", "size", pool.Size())

	checks := make(map[string]api.HealthChecker)

	var memory ratelimit.Memory
	if appCfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		redisMemory, err := ratelimit.NewRedis(ctx, appCfg.RedisAddr, appCfg.RedisPrefix)
		cancel()
		if err != nil {
			fatal("Failed to connect to Redis", err)
		}
		defer redisMemory.Close()
		memory = redisMemory
		checks["redis"] = redisMemory
		slog.Info("Rate-limit memory shared via Redis", "addr", appCfg.RedisAddr)
	} else {
		memory = ratelimit.NewLocal()
		slog.Debug("Rate-limit memory is process-local")
	}

	client := upstream.NewClient(upstream.Options{
		BaseURL:           appCfg.UpstreamURL,
		Timeout:           appCfg.UpstreamTimeout,
		RequestsPerSecond: appCfg.UpstreamRPS,
		UserAgent:         appCfg.UserAgent,
	})

	newsPolicy := policy.New(pool, memory, client, fallbackCatalog, policy.Options{
		DefaultRetryAfter: appCfg.DefaultRetryAfter,
		PageSize:          appCfg.PageSize,
	})

	slog.Info("Opening bookmark database", "path", appCfg.DBPath)
	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		fatal("Failed to open database", err)
	}
	defer db.Close()
	checks["database"] = db

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		fatal("Failed to run migrations", err)
	}
	slog.Info("Database schema ready", "version", version, "dirty", dirty)

	scheduler := tasks.NewScheduler(newsPolicy, appCfg.ProbeInterval, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(newsPolicy, database.NewBookmarkRepository(db), newsPolicy, scheduler, api.Options{
		PageSize: appCfg.PageSize,
		BaseURL:  appCfg.BaseURL(),
		Version:  appCfg.Version,
		Checks:   checks,
	})
	server := api.NewServer(handler, appCfg.APIAccessKey, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "base_url", appCfg.BaseURL())
		if appCfg.APIAccessKey == "" {
			slog.Warn("API_ACCESS_KEY not set, bookmark and probe endpoints are public")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(time.Now())
	}
	return catalog.Load(path, time.Now())
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
