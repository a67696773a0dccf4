package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vytor/studyflash/internal/api"
	"github.com/vytor/studyflash/internal/authority"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/study"
	"github.com/vytor/studyflash/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg := loadConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := setupLogger(cfg)

	log.Info("===========================================")
	log.Info("StudyFlash Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("authority_url=%s", cfg.AuthorityURL)
	log.Debug("fetch_timeout=%s", cfg.FetchTimeout)
	log.Debug("sync_timeout=%s", cfg.SyncTimeout)
	log.Debug("sync_worker_count=%d", cfg.SyncWorkerCount)
	log.Debug("sync_queue_size=%d", cfg.SyncQueueSize)
	log.Debug("review_batch_size=%d", cfg.ReviewBatchSize)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	var opts []authority.Option
	opts = append(opts, authority.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}))
	if cfg.AuthorityToken != "" {
		opts = append(opts, authority.WithToken(cfg.AuthorityToken))
	}
	client := authority.New(cfg.AuthorityURL, opts...)

	syncPool := worker.NewPool(cfg.SyncWorkerCount, cfg.SyncQueueSize)
	levels := study.NewLevelSync(client, syncPool, cfg.SyncTimeout)
	manager := study.NewManager(sqlite.NewSessionRepository(database.DB), client, levels, cfg.ReviewBatchSize)

	srv := &api.Server{
		Sessions: manager,
		DB:       database,
		Jobs:     syncPool,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syncPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		log.Info("received signal %v, initiating graceful shutdown", sig)
	case err, ok := <-serveErr:
		if ok {
			log.Error("HTTP server error: %v", err)
			syncPool.Stop()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping rating pool (%d pending)", syncPool.QueueSize())
	syncPool.Stop()

	log.Info("===========================================")
	log.Info("StudyFlash Server Stopped")
	log.Info("===========================================")
	return nil
}
