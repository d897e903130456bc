package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"readkeeper/internal/config"
	"readkeeper/internal/server"
	"readkeeper/internal/util"
	"readkeeper/pkg/blobstore"
	"readkeeper/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs, err := blobstore.NewMinioBlobStore(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioBucket,
		cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("failed to init blob store: %v", err)
	}

	var snapshots store.SnapshotStore
	switch cfg.SnapshotBackend {
	case config.BackendPostgres:
		snapshots, err = store.NewGormSnapshotStore(cfg.DatabaseURL, cfg.SnapshotKey)
		if err != nil {
			log.Fatalf("failed to init postgres snapshot store: %v", err)
		}
	default:
		snapshots = store.NewRedisSnapshotStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SnapshotKey)
	}

	readingStore, err := store.New(ctx, store.Config{
		Blobs:     blobs,
		Snapshots: snapshots,
	})
	if err != nil {
		log.Fatalf("failed to init reading store: %v", err)
	}

	httpServer, err := server.New(server.Config{
		Store:             readingStore,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("readkeeper listening", "addr", addr, "snapshot_backend", cfg.SnapshotBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
	slog.Info("readkeeper stopped")
}
