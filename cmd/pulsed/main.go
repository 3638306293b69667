package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luminacrm/pulse/internal/binding"
	"github.com/luminacrm/pulse/internal/config"
	"github.com/luminacrm/pulse/internal/connection"
	"github.com/luminacrm/pulse/internal/database"
	"github.com/luminacrm/pulse/internal/feed"
	"github.com/luminacrm/pulse/internal/identity"
	"github.com/luminacrm/pulse/internal/metrics"
	"github.com/luminacrm/pulse/internal/router"
	"github.com/luminacrm/pulse/internal/sink"
	"github.com/luminacrm/pulse/internal/toast"
	"github.com/luminacrm/pulse/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pulsed.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pulsed",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"server_url", cfg.Server.URL,
		"archive_enabled", cfg.Archive.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Toast surface and handler table
	surface := toast.NewLogSurface(logger)
	notifier := sink.New(surface, sink.Options{
		DefaultDuration:      cfg.Toast.DefaultDuration,
		AnnouncementDuration: cfg.Toast.AnnouncementDuration,
		Position:             cfg.Toast.Position,
	}, logger)
	table := notifier.Table()
	dispatcher := router.NewDispatcher(logger)

	// Optional notification archive
	var archive *feed.Writer
	var archiveBuf *router.GrowableBuffer[router.Envelope]
	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Archive.Database.Host,
			"port", cfg.Archive.Database.Port,
			"database", cfg.Archive.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Archive.Database)
		if err != nil {
			logger.Error("failed to connect to archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		archiveBuf = router.NewGrowableBuffer[router.Envelope](cfg.Archive.BufferSize)
		archive = feed.NewWriter(feed.WriterConfig{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval,
		}, archiveBuf, pool, logger)

		if err := archive.Start(ctx); err != nil {
			logger.Error("failed to start archive writer", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			archive.Stop(stopCtx)
		}()

		logger.Info("archive database connected")
	}

	// Session manager. All hooks run on the session goroutine; dispatch stays
	// cheap and the archive hand-off is a buffered send.
	manager := connection.NewManager(connection.ManagerConfig{
		URL:               cfg.Server.URL,
		APIKey:            cfg.Server.APIKey,
		ReconnectDelay:    cfg.Connection.ReconnectDelay,
		ReconnectAttempts: cfg.Connection.ReconnectAttempts,
		HandshakeTimeout:  cfg.Server.HandshakeTimeout,
		PingTimeout:       cfg.Connection.PingTimeout,
		WriteTimeout:      cfg.Connection.WriteTimeout,
		BufferSize:        cfg.Connection.BufferSize,
	}, connection.Hooks{
		OnEvent: func(env router.Envelope) {
			dispatcher.Dispatch(env, table)
			if archiveBuf != nil {
				archiveBuf.Send(env)
			}
		},
		OnConnectError: notifier.OnConnectError,
		OnError:        notifier.OnError,
	}, logger)

	// Identity from the watched session file
	store := identity.NewFileStore(cfg.Session.Path, logger)
	if err := store.Start(ctx); err != nil {
		logger.Error("failed to start session store", "error", err)
		os.Exit(1)
	}
	defer store.Stop()

	// Metrics and health server
	var archiveStats metrics.ArchiveStats
	if archive != nil {
		archiveStats = archive
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(manager, dispatcher, archiveStats))

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(cfg.Metrics.Path, registry, manager, store),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Host binding drives the session from identity changes
	bindingDone := make(chan struct{})
	hostBinding := binding.New(store, manager, logger)
	go func() {
		defer close(bindingDone)
		if err := hostBinding.Run(ctx); err != nil {
			logger.Error("host binding exited", "error", err)
		}
	}()

	logger.Info("pulsed running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	// The binding unbinds the session on exit; wait for it so no connection
	// outlives the daemon.
	select {
	case <-bindingDone:
	case <-time.After(10 * time.Second):
		logger.Warn("host binding shutdown timed out")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("pulsed stopped")
}

// createHealthHandler creates the HTTP handler for health checks and metrics.
func createHealthHandler(metricsPath string, registry *prometheus.Registry, manager *connection.Manager, store *identity.FileStore) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		state := manager.State()
		id := store.Current()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		health.Components["connection"] = state.String()
		if id == nil {
			health.Components["session"] = "logged_out"
		} else {
			health.Components["session"] = map[string]string{"user_id": id.UserID}
			// A logged-in user without a live session is worth flagging.
			if state == connection.StateDisconnected {
				health.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return mux
}
