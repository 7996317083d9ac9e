package cmd

import (
	"errors"
	"fmt"

	"github.com/rleal/face-attendance/internal/config"
	"github.com/rleal/face-attendance/internal/device"
	"github.com/rleal/face-attendance/internal/engine"
	"github.com/rleal/face-attendance/internal/gallery/postgres"
	"github.com/rleal/face-attendance/internal/recognition"
	"github.com/rleal/face-attendance/internal/video"
)

// openStore connects to PostgreSQL and runs migrations.
func openStore(cfg *config.Config) (*postgres.Pool, *postgres.Store, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return pool, postgres.NewStore(pool), nil
}

// newVideoOpener builds the camera opener from config.
func newVideoOpener(cfg *config.Config) (video.Opener, error) {
	if cfg.Camera.URL == "" {
		return nil, errors.New("CAMERA_URL environment variable is required")
	}
	return &video.SnapshotOpener{
		URL:            cfg.Camera.URL,
		ConnectTimeout: cfg.Camera.ConnectTimeout,
		ReadTimeout:    cfg.Camera.ReadTimeout,
	}, nil
}

// newConfirmer builds the device client, or nil when no device is configured.
func newConfirmer(cfg *config.Config) recognition.Confirmer {
	if cfg.Device.Addr == "" {
		return nil
	}
	return device.NewClient(cfg.Device.Addr, cfg.Device.Timeout)
}

// newRecognitionService wires the full recognition stack.
func newRecognitionService(cfg *config.Config, store *postgres.Store) (*recognition.Service, error) {
	opener, err := newVideoOpener(cfg)
	if err != nil {
		return nil, err
	}
	embedder := engine.NewClient(cfg.Engine.URL, cfg.Engine.Dim)
	loop := recognition.NewLoop(opener, embedder, cfg.Recognition.Deadline)
	return recognition.NewService(
		loop, store, newConfirmer(cfg),
		cfg.Recognition.MatchThreshold, cfg.Recognition.VerifyThreshold,
	), nil
}
