package repository

import (
	"context"
	"errors"

	"github.com/rpattn/munimport/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// IngestionLogRepository keeps one audit entry per upload attempt.
type IngestionLogRepository interface {
	Create(ctx context.Context, entry domain.IngestionLogEntry) (domain.IngestionLogEntry, error)
	Update(ctx context.Context, entry domain.IngestionLogEntry) (domain.IngestionLogEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.IngestionLogEntry, error)
	List(ctx context.Context, ownerID uuid.UUID, limit int, offset int) ([]domain.IngestionLogEntry, error)
}

// RecordRepository writes mapped rows to their destination tables.
type RecordRepository interface {
	// DeleteAll removes every record of table and reports how many went.
	DeleteAll(ctx context.Context, table domain.TableType) (int64, error)
	// InsertBatch stores rows as one bulk operation: either all rows land or none do.
	InsertBatch(ctx context.Context, table domain.TableType, rows []domain.Row) (int, error)
	// ReplaceAll clears table and inserts every batch in one transaction. On error the
	// table keeps its previous contents. It returns how many records were removed.
	ReplaceAll(ctx context.Context, table domain.TableType, batches [][]domain.Row) (int64, error)
	Count(ctx context.Context, table domain.TableType) (int64, error)
}
