package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpattn/munimport/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ingestionLogRepository struct {
	pool *pgxpool.Pool
}

// NewIngestionLogRepository wires a repository backed by pgxpool.
func NewIngestionLogRepository(pool *pgxpool.Pool) IngestionLogRepository {
	return &ingestionLogRepository{pool: pool}
}

const ingestionLogColumns = `id, owner_id, file_name, stored_path, import_context, detected_table, mode,
	row_count, inserted_count, error_count, batches, status, error_message, created_at, updated_at`

func (r *ingestionLogRepository) Create(ctx context.Context, entry domain.IngestionLogEntry) (domain.IngestionLogEntry, error) {
	if r.pool == nil {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log repository not initialized")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	batches, err := marshalBatches(entry.Batches)
	if err != nil {
		return domain.IngestionLogEntry{}, err
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO ingestion_logs (id, owner_id, file_name, stored_path, import_context, detected_table, mode,
		     row_count, inserted_count, error_count, batches, status, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+ingestionLogColumns,
		entry.ID,
		entry.OwnerID,
		entry.FileName,
		entry.StoredPath,
		string(entry.ImportContext),
		string(entry.DetectedTable),
		string(entry.Mode),
		entry.RowCount,
		entry.InsertedCount,
		entry.ErrorCount,
		batches,
		string(entry.Status),
		entry.ErrorMessage,
	)
	created, err := scanIngestionLog(row)
	if err != nil {
		return domain.IngestionLogEntry{}, fmt.Errorf("failed to create ingestion log: %w", err)
	}
	return created, nil
}

func (r *ingestionLogRepository) Update(ctx context.Context, entry domain.IngestionLogEntry) (domain.IngestionLogEntry, error) {
	if r.pool == nil {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log repository not initialized")
	}
	batches, err := marshalBatches(entry.Batches)
	if err != nil {
		return domain.IngestionLogEntry{}, err
	}

	row := r.pool.QueryRow(
		ctx,
		`UPDATE ingestion_logs
		    SET row_count = $2, inserted_count = $3, error_count = $4, batches = $5,
		        status = $6, error_message = $7, updated_at = NOW()
		  WHERE id = $1
		 RETURNING `+ingestionLogColumns,
		entry.ID,
		entry.RowCount,
		entry.InsertedCount,
		entry.ErrorCount,
		batches,
		string(entry.Status),
		entry.ErrorMessage,
	)
	updated, err := scanIngestionLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log %s: %w", entry.ID, ErrNotFound)
	}
	if err != nil {
		return domain.IngestionLogEntry{}, fmt.Errorf("failed to update ingestion log: %w", err)
	}
	return updated, nil
}

func (r *ingestionLogRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.IngestionLogEntry, error) {
	if r.pool == nil {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log repository not initialized")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+ingestionLogColumns+` FROM ingestion_logs WHERE id = $1`, id)
	entry, err := scanIngestionLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.IngestionLogEntry{}, fmt.Errorf("failed to get ingestion log: %w", err)
	}
	return entry, nil
}

func (r *ingestionLogRepository) List(ctx context.Context, ownerID uuid.UUID, limit int, offset int) ([]domain.IngestionLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("ingestion log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+ingestionLogColumns+`
		 FROM ingestion_logs
		 WHERE owner_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		ownerID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.IngestionLogEntry{}
	for rows.Next() {
		entry, scanErr := scanIngestionLog(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan ingestion log: %w", scanErr)
		}
		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate ingestion logs: %w", rowsErr)
	}

	return logs, nil
}

func scanIngestionLog(row pgx.Row) (domain.IngestionLogEntry, error) {
	var (
		entry         domain.IngestionLogEntry
		importContext string
		detected      string
		mode          string
		status        string
		batches       []byte
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)
	if err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&entry.FileName,
		&entry.StoredPath,
		&importContext,
		&detected,
		&mode,
		&entry.RowCount,
		&entry.InsertedCount,
		&entry.ErrorCount,
		&batches,
		&status,
		&entry.ErrorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.IngestionLogEntry{}, err
	}

	entry.ImportContext = domain.ImportContext(importContext)
	entry.DetectedTable = domain.TableType(detected)
	entry.Mode = domain.ImportMode(mode)
	entry.Status = domain.IngestionStatus(status)
	if len(batches) > 0 {
		if err := json.Unmarshal(batches, &entry.Batches); err != nil {
			return domain.IngestionLogEntry{}, fmt.Errorf("decode batch results: %w", err)
		}
	}
	if createdAt.Valid {
		entry.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		entry.UpdatedAt = updatedAt.Time
	}
	return entry, nil
}

func marshalBatches(batches []domain.BatchResult) ([]byte, error) {
	if batches == nil {
		batches = []domain.BatchResult{}
	}
	payload, err := json.Marshal(batches)
	if err != nil {
		return nil, fmt.Errorf("encode batch results: %w", err)
	}
	return payload, nil
}
