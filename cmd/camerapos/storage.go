package main

import (
	"fmt"
	"log/slog"

	"github.com/dronedata/camerapos/internal/config"
	"github.com/dronedata/camerapos/internal/storage"
	"github.com/dronedata/camerapos/internal/storage/memory"
	pgstorage "github.com/dronedata/camerapos/internal/storage/postgres"
	sqlitestorage "github.com/dronedata/camerapos/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// createStorageBackend builds the configured backend. The coordinates file is
// always written, relative paths resolving against outputDir; database backends
// store the run in addition to it.
func createStorageBackend(storageCfg config.StorageConfig, outputDir string, logger *slog.Logger, dbLog zerolog.Logger) (storage.Backend, error) {
	out := memory.New(memory.Config{
		OutputDir:  outputDir,
		File:       storageCfg.Output.File,
		Precision:  storageCfg.Output.Precision,
		GeoJSON:    storageCfg.Output.GeoJSON,
		Compress:   storageCfg.Output.Compress,
		SourceEPSG: storageCfg.Output.SourceEPSG,
	})

	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.New(logger, dbLog)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres backend: %w", err)
		}
		logger.Info("Postgres storage backend initialized")
		return storage.NewMulti(out, backend), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path: storageCfg.SQLite.Path,
		}, logger, dbLog)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return storage.NewMulti(out, backend), nil

	case "memory", "":
		logger.Info("Memory storage backend initialized")
		return out, nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
