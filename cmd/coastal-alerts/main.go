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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/coastwatch/coastal-hazard-alerts/internal/alerting"
	"github.com/coastwatch/coastal-hazard-alerts/internal/api"
	"github.com/coastwatch/coastal-hazard-alerts/internal/classifier"
	"github.com/coastwatch/coastal-hazard-alerts/internal/config"
	"github.com/coastwatch/coastal-hazard-alerts/internal/logging"
	"github.com/coastwatch/coastal-hazard-alerts/internal/models"
	"github.com/coastwatch/coastal-hazard-alerts/internal/report"
	"github.com/coastwatch/coastal-hazard-alerts/internal/repository"
	"github.com/coastwatch/coastal-hazard-alerts/internal/stream"
	"github.com/coastwatch/coastal-hazard-alerts/internal/tide"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// A missing model file is fatal: the service cannot classify without it.
	registry, err := classifier.LoadRegistry(cfg.Models.Dir)
	if err != nil {
		logging.Fatalf("Failed to load models: %v", err)
	}

	channels, err := alerting.LoadChannels(cfg.Alerting.ConfigPath)
	if err != nil {
		logging.Fatalf("Failed to load alert channels: %v", err)
	}
	dispatcher := alerting.NewDispatcher(channels)

	broadcaster := stream.NewBroadcaster()

	var geocoder report.Geocoder = report.NoopGeocoder{}
	if cfg.Geocoder.Enabled {
		geocoder = report.NewNominatimGeocoder(cfg.Geocoder)
	}

	svc := report.NewService(registry, dispatcher, db, broadcaster, geocoder, cfg.Thresholds)
	for _, ch := range channels {
		if sms, ok := ch.Sender.(*alerting.SMSSender); ok && ch.Enabled {
			svc.SetReporterNotifier(sms)
		}
	}

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit.RPS))

	handler := api.NewHandler(svc, db, registry, dispatcher, broadcaster)
	handler.RegisterRoutes(router)

	tideLocation := models.Location{
		Latitude:  cfg.Tide.Latitude,
		Longitude: cfg.Tide.Longitude,
		Name:      geocoder.ReverseGeocode(context.Background(), cfg.Tide.Latitude, cfg.Tide.Longitude),
	}
	monitor := tide.NewMonitor(
		tideLocation,
		tide.Thresholds{
			HighTide:   cfg.Tide.HighTide,
			LowTide:    cfg.Tide.LowTide,
			StormSurge: cfg.Tide.StormSurge,
		},
		dispatcher,
	)
	api.NewTideHandler(monitor).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	broadcaster.Close() // Close all streams gracefully

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
