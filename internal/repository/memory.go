package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rpattn/munimport/internal/domain"

	"github.com/google/uuid"
)

// MemoryIngestionLogRepository keeps log entries in process. It backs dry runs and tests.
type MemoryIngestionLogRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]domain.IngestionLogEntry
	now     func() time.Time
}

func NewMemoryIngestionLogRepository() *MemoryIngestionLogRepository {
	return &MemoryIngestionLogRepository{
		entries: make(map[uuid.UUID]domain.IngestionLogEntry),
		now:     time.Now,
	}
}

func (r *MemoryIngestionLogRepository) Create(_ context.Context, entry domain.IngestionLogEntry) (domain.IngestionLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if _, exists := r.entries[entry.ID]; exists {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log %s already exists", entry.ID)
	}
	now := r.now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.Batches = append([]domain.BatchResult(nil), entry.Batches...)
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *MemoryIngestionLogRepository) Update(_ context.Context, entry domain.IngestionLogEntry) (domain.IngestionLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[entry.ID]
	if !ok {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log %s: %w", entry.ID, ErrNotFound)
	}
	existing.RowCount = entry.RowCount
	existing.InsertedCount = entry.InsertedCount
	existing.ErrorCount = entry.ErrorCount
	existing.Batches = append([]domain.BatchResult(nil), entry.Batches...)
	existing.Status = entry.Status
	existing.ErrorMessage = entry.ErrorMessage
	existing.UpdatedAt = r.now().UTC()
	r.entries[entry.ID] = existing
	return existing, nil
}

func (r *MemoryIngestionLogRepository) GetByID(_ context.Context, id uuid.UUID) (domain.IngestionLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return domain.IngestionLogEntry{}, fmt.Errorf("ingestion log %s: %w", id, ErrNotFound)
	}
	return entry, nil
}

// List returns the owner's entries newest first.
func (r *MemoryIngestionLogRepository) List(_ context.Context, ownerID uuid.UUID, limit int, offset int) ([]domain.IngestionLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	logs := []domain.IngestionLogEntry{}
	for _, entry := range r.entries {
		if entry.OwnerID == ownerID {
			logs = append(logs, entry)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].ID.String() < logs[j].ID.String()
		}
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})

	if offset >= len(logs) {
		return []domain.IngestionLogEntry{}, nil
	}
	end := offset + limit
	if end > len(logs) {
		end = len(logs)
	}
	return logs[offset:end], nil
}

// MemoryRecordRepository stores mapped rows per table in process.
type MemoryRecordRepository struct {
	mu     sync.RWMutex
	tables map[domain.TableType][]domain.Row
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{tables: make(map[domain.TableType][]domain.Row)}
}

func (r *MemoryRecordRepository) DeleteAll(_ context.Context, table domain.TableType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := int64(len(r.tables[table]))
	delete(r.tables, table)
	return removed, nil
}

func (r *MemoryRecordRepository) InsertBatch(_ context.Context, table domain.TableType, rows []domain.Row) (int, error) {
	for i, row := range rows {
		if row.Record == nil || row.Record.Table() != table {
			return 0, fmt.Errorf("row %d does not belong to %s", i, table)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table] = append(r.tables[table], rows...)
	return len(rows), nil
}

// ReplaceAll validates every batch before touching the table, so a bad row leaves the
// previous records in place.
func (r *MemoryRecordRepository) ReplaceAll(_ context.Context, table domain.TableType, batches [][]domain.Row) (int64, error) {
	var rows []domain.Row
	for b, batch := range batches {
		for i, row := range batch {
			if row.Record == nil || row.Record.Table() != table {
				return 0, fmt.Errorf("batch %d: row %d does not belong to %s", b, i, table)
			}
		}
		rows = append(rows, batch...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cleared := int64(len(r.tables[table]))
	if len(rows) == 0 {
		delete(r.tables, table)
	} else {
		r.tables[table] = rows
	}
	return cleared, nil
}

func (r *MemoryRecordRepository) Count(_ context.Context, table domain.TableType) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.tables[table])), nil
}

// Rows returns a copy of everything stored for table.
func (r *MemoryRecordRepository) Rows(table domain.TableType) []domain.Row {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Row(nil), r.tables[table]...)
}
