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

	"github.com/podcastgpt/studio/app/api"
	"github.com/podcastgpt/studio/app/cfg"
	"github.com/podcastgpt/studio/app/database"
	"github.com/podcastgpt/studio/app/episode"
	"github.com/podcastgpt/studio/app/generation"
	"github.com/podcastgpt/studio/app/sources"
	"github.com/podcastgpt/studio/app/storage"
	"github.com/podcastgpt/studio/app/tasks"
	"github.com/podcastgpt/studio/app/tones"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting PodcastGPT Studio", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	toneCache := tones.NewCache(appCfg.TonesDir)
	if err := toneCache.Run(); err != nil {
		slog.Error("Failed to load tone profiles", "error", err)
		os.Exit(1)
	}
	slog.Info("Tone profiles loaded", "tones", toneCache.Names())

	episodeRepo := database.NewEpisodeRepository(db)

	sourcesClient := sources.NewClient(appCfg.UserAgent)
	citationResolver := sources.NewCitationResolver(sourcesClient)
	coverImageResolver := sources.NewCoverImageResolver(sourcesClient, appCfg.GoogleCSEId, appCfg.GoogleAPIKey)
	audioPublisher := storage.NewAudioPublisher(appCfg)
	generationClient := generation.NewClient(appCfg)

	pipeline := episode.NewPipeline(episodeRepo, toneCache, generationClient,
		citationResolver, coverImageResolver, audioPublisher)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	feedGenerator := api.NewFeedGenerator(appCfg.BaseUrl, appCfg.Port, appCfg.Version)
	apiHandler := api.NewHandler(episodeRepo, toneCache, pipeline, scheduler, feedGenerator)
	server := api.NewServer(apiHandler, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer; in-flight episode pipelines are
	// cancelled through the scheduler context
	slog.Info("Shutdown complete")
}
