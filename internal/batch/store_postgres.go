package batch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"artshow/pkg/platform/sentinel"
)

// PostgresStore persists batches in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed batch store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const batchColumns = `id, batchtype, data, processed, processing_log, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, scan *BatchScan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_scans (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, scan.ID, string(scan.BatchType), scan.Data, scan.Processed, scan.ProcessingLog,
		scan.CreatedAt, scan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*BatchScan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batch_scans WHERE id = $1`, id)
	scan, err := scanBatch(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("batch %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return scan, nil
}

func (s *PostgresStore) Update(ctx context.Context, scan *BatchScan) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE batch_scans
		SET processed = $2, processing_log = $3, updated_at = $4
		WHERE id = $1
	`, scan.ID, scan.Processed, scan.ProcessingLog, scan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("batch %s: %w", scan.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*BatchScan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM batch_scans ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []*BatchScan
	for rows.Next() {
		scan, err := scanBatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		out = append(out, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

func scanBatch(scanRow func(dest ...any) error) (*BatchScan, error) {
	var scan BatchScan
	var batchType string
	err := scanRow(&scan.ID, &batchType, &scan.Data, &scan.Processed, &scan.ProcessingLog,
		&scan.CreatedAt, &scan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	scan.BatchType = BatchType(batchType)
	return &scan, nil
}
