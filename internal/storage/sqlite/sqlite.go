// Package sqlitestorage implements the storage.Backend interface on a SQLite file.
// It wraps the GORM backend via composition; the only SQLite-specific concerns are
// opening the file and migrating the schema there.
package sqlitestorage

import (
	"fmt"
	"log/slog"

	"github.com/dronedata/camerapos/internal/database"
	gormstorage "github.com/dronedata/camerapos/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path string // empty for a private in-memory database
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	cfg     Config
}

// New opens the SQLite database. dbLog receives connection and migration messages.
func New(cfg Config, logger *slog.Logger, dbLog zerolog.Logger) (*Backend, error) {
	manager := database.NewManager(dbLog)
	if err := manager.ConnectSqlite(cfg.Path); err != nil {
		return nil, err
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     manager.DB,
			Logger: logger,
			Name:   "sqlite",
		}),
		manager: manager,
		cfg:     cfg,
	}, nil
}

// Init migrates the schema and initializes the embedded GORM backend.
func (b *Backend) Init() error {
	if err := b.manager.Setup(); err != nil {
		return fmt.Errorf("failed to setup SQLite DB: %w", err)
	}
	return b.Backend.Init()
}

// Close closes the embedded GORM backend and the database file.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.manager.Close()
}

// OutputFiles reports the database file so the CLI can list it with the other outputs.
func (b *Backend) OutputFiles() []string {
	if b.cfg.Path == "" {
		return nil
	}
	return []string{b.cfg.Path}
}
