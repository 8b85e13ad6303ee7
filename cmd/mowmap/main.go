package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mowmap/internal/cache"
	"mowmap/internal/config"
	"mowmap/internal/handler"
	"mowmap/internal/hub"
	"mowmap/internal/ingestor"
	"mowmap/internal/middleware"
	"mowmap/internal/render"
	"mowmap/internal/store"
	"mowmap/internal/zone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var h slog.Handler
	if cfg.LogFormat == "text" {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	} else {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	}
	logger := slog.New(h)
	slog.SetDefault(logger)

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		logger.Error("failed to load profile", "path", cfg.ProfilePath, "error", err)
		os.Exit(1)
	}

	logger.Info("starting mowmap server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"profile", cfg.ProfilePath,
		"mowers", len(profile.Mowers),
		"zones", len(profile.Zones),
	)

	zoneIndex, err := zone.NewIndex(profile.Zones)
	if err != nil {
		logger.Error("failed to build zone index", "error", err)
		os.Exit(1)
	}

	st := store.New()
	wsHub := hub.NewHub(logger)

	mowers := make(map[string]ingestor.Mower, len(profile.Mowers))
	for id, m := range profile.Mowers {
		renderer, err := render.NewRenderer(render.Config{
			MapImagePath: m.Map.ImagePath,
			IconPath:     m.Map.IconPath,
			TopLeft:      m.Map.TopLeft,
			BottomRight:  m.Map.BottomRight,
			RotationDeg:  m.Map.RotationDeg,
			Mode:         m.Map.Mode,
			PathColor:    m.Map.PathColor,
			Home:         m.Map.Home,
			Zones:        zoneIndex.Zones(id),
		})
		if err != nil {
			logger.Error("failed to set up renderer", "mower_id", id, "error", err)
			os.Exit(1)
		}
		mowers[id] = ingestor.Mower{Renderer: renderer, Home: m.Map.Home}
	}

	var redisCache *cache.RedisCache
	var mirror *cache.Mirror
	if cfg.RedisEnabled {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without cache", "error", err)
		} else {
			defer redisCache.Close()
			mirror = cache.NewMirror(redisCache, st, cfg.CacheTTL, logger)
		}
	}

	pipeline := ingestor.NewPipeline(mowers, zoneIndex, st, wsHub, mirror, cfg, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)

	mowerHandler := handler.NewMowerHandler(st, zoneIndex, pipeline, cfg.MaxSnapshotSize, logger)
	wsHandler := handler.NewWSHandler(wsHub, st, logger)
	healthHandler := handler.NewHealthHandler(pipeline, st)
	statsHandler := handler.NewStatsHandler(st, zoneIndex, wsHub, limiter, redisCache != nil)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/mowers", mowerHandler.ListMowers)
	mux.HandleFunc("GET /v1/mowers/{id}", mowerHandler.GetMower)
	mux.HandleFunc("GET /v1/mowers/{id}/zone", mowerHandler.GetZone)
	mux.HandleFunc("GET /v1/mowers/{id}/map", mowerHandler.GetMap)
	mux.HandleFunc("GET /v1/mowers/{id}/schedule", mowerHandler.GetSchedule)
	mux.Handle("POST /v1/mowers/{id}/snapshot", limiter.Middleware(http.HandlerFunc(mowerHandler.IngestSnapshot)))
	mux.HandleFunc("GET /v1/zones", mowerHandler.ListZones)
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /v1/stats", statsHandler.GetStats)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.CORSMiddleware(handler.GzipMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go wsHub.Run(ctx)

	go pipeline.Run(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
