package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// LatestPointer is the registry row mapping a record type to the batch it
// currently points at.
type LatestPointer struct {
	RecordType string
	BatchID    string
	Path       string
	UpdatedAt  time.Time
}

// BatchRow is one recorded batch with the snapshot it was derived from.
type BatchRow struct {
	ID           string
	SnapshotPath string
	AlbumsPath   string
	TracksPath   string
	Format       string
	CreatedAt    time.Time
}

// BatchRegistry implements the versioned registry over SQLite.
type BatchRegistry struct {
	db *sql.DB
}

// NewBatchRegistry creates a registry backed by the given database.
// The schema is managed by [shared.RunMigrations].
func NewBatchRegistry(db *sql.DB) *BatchRegistry {
	return &BatchRegistry{db: db}
}

// RecordBatch inserts the batch and repoints both latest pointers in one
// transaction. On any failure the transaction rolls back and the prior
// pointers remain valid.
func (r *BatchRegistry) RecordBatch(batch models.ProcessedBatch, snapshotPath string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO batches (id, snapshot_path, albums_path, tracks_path, format) VALUES (?, ?, ?, ?, ?)",
		batch.ID, snapshotPath, batch.AlbumsPath, batch.TracksPath, batch.Format,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	pointers := map[string]string{
		models.RecordTypeAlbums: batch.AlbumsPath,
		models.RecordTypeTracks: batch.TracksPath,
	}
	for recordType, path := range pointers {
		_, err = tx.Exec(
			`INSERT INTO latest_pointers (record_type, batch_id, path, updated_at)
			 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(record_type) DO UPDATE SET
			     batch_id = excluded.batch_id,
			     path = excluded.path,
			     updated_at = CURRENT_TIMESTAMP`,
			recordType, batch.ID, path,
		)
		if err != nil {
			return fmt.Errorf("failed to update latest pointer for %s: %w", recordType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch registration: %w", err)
	}
	return nil
}

// Latest returns the current pointer for a record type.
func (r *BatchRegistry) Latest(recordType string) (*LatestPointer, error) {
	var pointer LatestPointer
	err := r.db.QueryRow(
		"SELECT record_type, batch_id, path, updated_at FROM latest_pointers WHERE record_type = ?",
		recordType,
	).Scan(&pointer.RecordType, &pointer.BatchID, &pointer.Path, &pointer.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPointerNotFound, recordType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest pointer: %w", err)
	}
	return &pointer, nil
}

// Batch returns a recorded batch by ID.
func (r *BatchRegistry) Batch(id string) (*BatchRow, error) {
	var row BatchRow
	err := r.db.QueryRow(
		"SELECT id, snapshot_path, albums_path, tracks_path, format, created_at FROM batches WHERE id = ?",
		id,
	).Scan(&row.ID, &row.SnapshotPath, &row.AlbumsPath, &row.TracksPath, &row.Format, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrBatchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}
	return &row, nil
}

// Batches lists recorded batches, newest first.
func (r *BatchRegistry) Batches(limit int) ([]BatchRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		"SELECT id, snapshot_path, albums_path, tracks_path, format, created_at FROM batches ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []BatchRow
	for rows.Next() {
		var row BatchRow
		if err := rows.Scan(&row.ID, &row.SnapshotPath, &row.AlbumsPath, &row.TracksPath, &row.Format, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch row: %w", err)
		}
		batches = append(batches, row)
	}
	return batches, rows.Err()
}
