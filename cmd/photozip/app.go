package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/config"
	"github.com/sagarc03/photozip/database"
	"github.com/sagarc03/photozip/filesystem"
	"github.com/sagarc03/photozip/producer"
)

// app holds everything the commands share. close releases the photos
// root and the history database.
type app struct {
	service *photozip.ArchiveService
	history photozip.HistoryRepo
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	photosPath, err := filepath.Abs(cfg.Photos.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve photos directory: %w", err)
	}

	root, err := os.OpenRoot(photosPath)
	if err != nil {
		return nil, fmt.Errorf("open photos root: %w", err)
	}
	a.closers = append(a.closers, func() { _ = root.Close() })

	store := filesystem.NewFileStorage(root, photosPath)

	prod, kind := newProducer(cfg.Archive, store)

	if cfg.History.Enabled() {
		repo, closeDB, err := database.Connect(ctx, cfg.History)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect history database: %w", err)
		}
		a.closers = append(a.closers, closeDB)
		a.history = repo
		slog.Info("archive history enabled", "type", cfg.History.Type, "table", cfg.History.Table)
	}

	service, err := photozip.NewArchiveService(store, prod, photozip.ServiceConfig{
		Producer: kind,
		Stream: photozip.StreamConfig{
			Delay:        cfg.Archive.Delay(),
			MaxChunkSize: cfg.Archive.ChunkSize,
		},
		History: a.history,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create service: %w", err)
	}
	a.service = service

	slog.Debug("photos root opened", "path", photosPath, "producer", kind)

	return a, nil
}

// newProducer returns the configured producer. A missing zip binary falls
// back to the native producer.
func newProducer(cfg config.ArchiveConfig, store *filesystem.Store) (photozip.Producer, photozip.ProducerKind) {
	if cfg.Producer == string(photozip.ProducerZip) {
		zp := producer.NewZipProducer(cfg.ZipBinary)
		err := zp.LookPath()
		if err == nil {
			return zp, photozip.ProducerZip
		}
		slog.Warn("zip binary unavailable, using native producer", "binary", zp.Binary(), "err", err)
	}

	return producer.NewNativeProducer(store), photozip.ProducerNative
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
