// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues flushed in batches when the run ends.
// The SQLite and Postgres backends wrap it and only differ in how the DB is opened.
package gormstorage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dronedata/camerapos/internal/model"
	"github.com/dronedata/camerapos/internal/model/convert"
	"github.com/dronedata/camerapos/internal/queue"
	"github.com/dronedata/camerapos/internal/storage"
	"github.com/dronedata/camerapos/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBatchSize is the number of rows per INSERT when flushing queues.
const DefaultBatchSize = 500

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB        *gorm.DB
	Logger    *slog.Logger
	Name      string // backend name used in errors, e.g. "sqlite"
	BatchSize int
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	Positions *queue.Queue[model.CameraPosition]
	Unmatched *queue.Queue[model.UnmatchedImage]
}

func newQueues() *queues {
	return &queues{
		Positions: queue.New[model.CameraPosition](),
		Unmatched: queue.New[model.UnmatchedImage](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu           sync.Mutex
	run          *model.Run
	seqMatched   int
	seqUnmatched int
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Name == "" {
		deps.Name = "gorm"
	}
	if deps.BatchSize < 1 {
		deps.BatchSize = DefaultBatchSize
	}
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("%s: no database connection", b.deps.Name)
	}
	b.queues = newQueues()
	return nil
}

// Close is a no-op; the connection belongs to the wrapping backend.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) writeError(target string, err error) error {
	return &storage.WriteError{Backend: b.deps.Name, Target: target, Err: err}
}

// StartRun inserts the run row and assigns its DB-generated ID back to run.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	gormRun, err := convert.CoreToRun(*run)
	if err != nil {
		return b.writeError("runs", err)
	}
	gormRun.ID = 0
	if err := b.deps.DB.Create(&gormRun).Error; err != nil {
		return b.writeError("runs", fmt.Errorf("failed to insert new run: %w", err))
	}
	run.ID = gormRun.ID

	b.run = &gormRun
	b.seqMatched = 0
	b.seqUnmatched = 0
	b.queues.Positions.GetAndEmpty()
	b.queues.Unmatched.GetAndEmpty()

	b.deps.Logger.Debug("Run stored", "backend", b.deps.Name, "runId", run.RunID, "id", run.ID)
	return nil
}

// RecordMatch converts a matched image to GORM and pushes it to the write queue.
func (b *Backend) RecordMatch(m *core.MatchedImage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return b.writeError("camera_positions", fmt.Errorf("no run started"))
	}

	row, err := convert.CoreToCameraPosition(b.run.ID, b.seqMatched, *m)
	if err != nil {
		return b.writeError("camera_positions", err)
	}
	b.queues.Positions.Push(row)
	b.seqMatched++
	return nil
}

// RecordUnmatched converts a diagnostic to GORM and pushes it to the write queue.
func (b *Backend) RecordUnmatched(d *core.Diagnostic) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return b.writeError("unmatched_images", fmt.Errorf("no run started"))
	}

	b.queues.Unmatched.Push(convert.CoreToUnmatchedImage(b.run.ID, b.seqUnmatched, *d))
	b.seqUnmatched++
	return nil
}

// insertRows writes rows inside tx, batch by batch.
func insertRows[T any](tx *gorm.DB, rows []T, size int) error {
	return queue.InBatches(rows, size, func(batch []T) error {
		return tx.Omit(clause.Associations).Create(&batch).Error
	})
}

// EndRun flushes the queues and stamps the run with its end time and counts, in one transaction.
// When the transaction rolls back every row goes back on its queue.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return nil
	}

	start := time.Now()
	matched, unmatched := b.seqMatched, b.seqUnmatched
	positionRows := b.queues.Positions.GetAndEmpty()
	unmatchedRows := b.queues.Unmatched.GetAndEmpty()
	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := insertRows(tx, positionRows, b.deps.BatchSize); err != nil {
			return b.writeError("camera_positions", err)
		}
		if err := insertRows(tx, unmatchedRows, b.deps.BatchSize); err != nil {
			return b.writeError("unmatched_images", err)
		}
		err := tx.Model(&model.Run{}).Where("id = ?", b.run.ID).Updates(map[string]any{
			"end_time":        sql.NullTime{Time: time.Now().UTC(), Valid: true},
			"matched_count":   matched,
			"unmatched_count": unmatched,
		}).Error
		if err != nil {
			return b.writeError("runs", err)
		}
		return nil
	})
	if err != nil {
		b.queues.Positions.Requeue(positionRows...)
		b.queues.Unmatched.Requeue(unmatchedRows...)
		b.deps.Logger.Error("Failed to store run results", "backend", b.deps.Name, "error", err)
		return err
	}

	b.deps.Logger.Info("Run results stored",
		"backend", b.deps.Name,
		"positions", matched,
		"unmatched", unmatched,
		"duration", time.Since(start))
	b.run = nil
	return nil
}

// Positions reads back the stored rows of a run in output order.
func (b *Backend) Positions(runID uint) ([]core.MatchedImage, error) {
	var rows []model.CameraPosition
	if err := b.deps.DB.Where("run_id = ?", runID).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	out := make([]core.MatchedImage, len(rows))
	for i, r := range rows {
		out[i] = convert.CameraPositionToCore(r)
	}
	return out, nil
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}
