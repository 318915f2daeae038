// Package postgres implements the storage.Backend interface on PostgreSQL,
// configured through the db.* settings.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/dronedata/camerapos/internal/database"
	gormstorage "github.com/dronedata/camerapos/internal/storage/gorm"
	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
}

// New connects to Postgres.
func New(logger *slog.Logger, dbLog zerolog.Logger) (*Backend, error) {
	manager := database.NewManager(dbLog)
	if err := manager.ConnectPostgres(); err != nil {
		return nil, err
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     manager.DB,
			Logger: logger,
			Name:   "postgres",
		}),
		manager: manager,
	}, nil
}

// Init migrates the schema and initializes the embedded GORM backend.
func (b *Backend) Init() error {
	if err := b.manager.Setup(); err != nil {
		return fmt.Errorf("failed to setup Postgres DB: %w", err)
	}
	return b.Backend.Init()
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.manager.Close()
}
