package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/newswire/internal/adapter"
	"github.com/lysyi3m/newswire/internal/api"
	"github.com/lysyi3m/newswire/internal/cfg"
	"github.com/lysyi3m/newswire/internal/dedup"
	"github.com/lysyi3m/newswire/internal/news"
	"github.com/lysyi3m/newswire/internal/poll"
	"github.com/lysyi3m/newswire/internal/scheduler"
	"github.com/lysyi3m/newswire/internal/sink"
	"github.com/lysyi3m/newswire/internal/source"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if appCfg == nil {
		// Help was shown
		return nil
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting newswire", "version", appCfg.Version, "timezone", appCfg.Location)

	sources, err := source.Load(appCfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	adapters, err := adapter.NewAll(sources, adapter.Options{
		Client:    &http.Client{},
		UserAgent: appCfg.UserAgent,
		Timeout:   appCfg.Timeout,
		APIKey:    appCfg.FinnhubAPIKey,
		Location:  appCfg.Location,
	})
	if err != nil {
		return fmt.Errorf("failed to build adapters: %w", err)
	}
	slog.Info("Sources configured", "count", len(adapters))

	sinks := sink.MultiSink{sink.NewLogSink(os.Stdout)}

	var archive *sink.ArchiveSink
	if appCfg.ArchivePath != "" {
		archive, err = sink.OpenArchive(appCfg.ArchivePath)
		if err != nil {
			return err
		}
		defer archive.Close()
		sinks = append(sinks, archive)
		slog.Info("Archive enabled", "path", appCfg.ArchivePath)
	}

	if appCfg.RedisAddr != "" {
		redisSink := sink.NewRedisSink(appCfg.RedisAddr, appCfg.RedisChannel)
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
		slog.Info("Redis publishing enabled", "addr", appCfg.RedisAddr, "channel", appCfg.RedisChannel)
	}

	feedScheduler := scheduler.NewScheduler(poll.NewOrchestrator(sinks), adapters, dedup.NewSeenSet(), appCfg.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	if appCfg.StatusAPIEnabled() {
		httpServer := newHTTPServer(appCfg, feedScheduler, sources, archive)
		go func() {
			serveErr <- serve(ctx, httpServer, stop)
		}()
	} else {
		serveErr <- nil
	}

	feedScheduler.Run(ctx)

	// Wait for the status API to finish shutting down
	if err := <-serveErr; err != nil {
		return fmt.Errorf("status API failed: %w", err)
	}

	slog.Info("newswire shutdown complete")
	return nil
}

func newHTTPServer(appCfg *cfg.Cfg, stats api.StatsProvider, sources []news.SourceConfig, archive *sink.ArchiveSink) *http.Server {
	// A nil *ArchiveSink must not become a non-nil interface
	var archiveAPI api.Archive
	if archive != nil {
		archiveAPI = archive
	}

	handler := api.NewHandler(stats, sources, archiveAPI, appCfg.Version)

	return &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// serve runs the status API until ctx is done. A listener failure stops the
// whole process through stop and is returned.
func serve(ctx context.Context, server *http.Server, stop context.CancelFunc) error {
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("Starting status API", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		slog.Error("Status API failed", "error", err)
		stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Status API shutdown error", "error", err)
	} else {
		slog.Info("Status API stopped")
	}
	return nil
}
