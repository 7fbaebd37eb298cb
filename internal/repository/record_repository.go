package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/munimport/internal/db"
	"github.com/rpattn/munimport/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type recordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository writes mapped rows to the per-table Postgres tables.
func NewRecordRepository(pool *pgxpool.Pool) RecordRepository {
	return &recordRepository{pool: pool}
}

func (r *recordRepository) DeleteAll(ctx context.Context, table domain.TableType) (int64, error) {
	if err := r.check(table); err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, "DELETE FROM "+pgx.Identifier{string(table)}.Sanitize())
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// InsertBatch copies rows with COPY FROM, which commits or fails as a whole.
func (r *recordRepository) InsertBatch(ctx context.Context, table domain.TableType, rows []domain.Row) (int, error) {
	if err := r.check(table); err != nil {
		return 0, err
	}
	return copyRows(ctx, r.pool, table, rows)
}

func (r *recordRepository) ReplaceAll(ctx context.Context, table domain.TableType, batches [][]domain.Row) (int64, error) {
	if err := r.check(table); err != nil {
		return 0, err
	}
	var cleared int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{string(table)}.Sanitize())
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
		cleared = tag.RowsAffected()
		for i, rows := range batches {
			if _, err := copyRows(ctx, tx, table, rows); err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cleared, nil
}

// copier is satisfied by both *pgxpool.Pool and pgx.Tx.
type copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

func copyRows(ctx context.Context, q copier, table domain.TableType, rows []domain.Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([][]any, 0, len(rows))
	for i, row := range rows {
		if row.Record == nil || row.Record.Table() != table {
			return 0, fmt.Errorf("row %d does not belong to %s", i, table)
		}
		values = append(values, append([]any{row.OwnerID, row.IngestionID}, row.Record.Values()...))
	}
	columns := append([]string{"owner_id", "ingestion_id"}, rows[0].Record.Columns()...)

	copied, err := q.CopyFrom(ctx, pgx.Identifier{string(table)}, columns, pgx.CopyFromRows(values))
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch into %s: %w", table, err)
	}
	return int(copied), nil
}

func (r *recordRepository) Count(ctx context.Context, table domain.TableType) (int64, error) {
	if err := r.check(table); err != nil {
		return 0, err
	}
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{string(table)}.Sanitize()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// check keeps table names interpolated into SQL to the fixed set of known tables.
func (r *recordRepository) check(table domain.TableType) error {
	if r.pool == nil {
		return fmt.Errorf("record repository not initialized")
	}
	if !table.Known() {
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}
