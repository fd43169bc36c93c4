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

	"github.com/mrtommyb/K2fov/internal/api"
	"github.com/mrtommyb/K2fov/internal/campaign"
	"github.com/mrtommyb/K2fov/internal/catalog"
	"github.com/mrtommyb/K2fov/internal/config"
	"github.com/mrtommyb/K2fov/internal/finder"
	"github.com/mrtommyb/K2fov/internal/fovcache"
	"github.com/mrtommyb/K2fov/internal/layout"
	"github.com/mrtommyb/K2fov/internal/metrics"
	"github.com/mrtommyb/K2fov/internal/region"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load(bootLogger)
	if err != nil {
		bootLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	l, err := layout.Default()
	if err != nil {
		logger.Error("failed to load channel layout", "error", err)
		os.Exit(1)
	}
	mask, err := region.C9Superstamp()
	if err != nil {
		logger.Error("failed to load superstamp mask", "error", err)
		os.Exit(1)
	}

	store := campaign.NewStore()
	var tableCache *campaign.Cache
	if cfg.Campaigns.SourceURL != "" {
		tableCache = campaign.NewCache(cfg.Campaigns.CacheDir, cfg.Campaigns.MaxFiles)
	}
	if err := campaign.LoadInitial(tableCache, store, logger); err != nil {
		logger.Error("failed to load campaign table", "error", err)
		os.Exit(1)
	}
	logger.Info("campaign table loaded", "source", store.Get().Source, "fields", len(store.Table().FieldNumbers()))

	fovs := fovcache.New(store, l, logger)
	opts := catalog.Options{Padding: cfg.FOV.Padding, NearSiliconSep: cfg.FOV.NearSiliconDeg}
	deps := api.Deps{
		Store:      store,
		FOVs:       fovs,
		Finder:     finder.New(fovs, cfg.FOV.Padding, cfg.Batch.Workers),
		Pool:       catalog.NewWorkerPool(cfg.Batch.Workers, logger),
		Mask:       mask,
		Options:    opts,
		MaxTargets: cfg.Batch.MaxTargets,
		TrustProxy: cfg.Server.TrustProxy,
	}
	srv := api.NewServer(cfg.Server.Addr, logger, cfg.AuthConfig(), deps)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if interval := cfg.RefreshInterval(); interval > 0 {
		refresher := campaign.NewRefresher(campaign.NewFetcher(cfg.Campaigns.SourceURL), tableCache, store, logger)
		go func() {
			if err := refresher.Refresh(ctx); err != nil {
				logger.Warn("initial campaign table refresh failed", "error", err)
			}
			refresher.Run(ctx, interval)
		}()
	}

	// Background goroutine to update the campaign table age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetCampaignTableAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"workers", cfg.Batch.Workers,
			"padding", cfg.FOV.Padding,
			"campaign_refresh_seconds", cfg.RefreshInterval().Seconds(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
