package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/munimport/internal/domain"
)

func TestMemoryIngestionLogLifecycle(t *testing.T) {
	repo := NewMemoryIngestionLogRepository()
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, domain.IngestionLogEntry{
		OwnerID:  owner,
		FileName: "tabarim.xlsx",
		Status:   domain.IngestionProcessing,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	final := created.Finalize([]domain.BatchResult{{Index: 0, Rows: 3, Inserted: 3}}, time.Now())
	updated, err := repo.Update(ctx, final)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionCompleted, updated.Status)
	assert.Equal(t, 3, updated.InsertedCount)
	assert.Equal(t, "tabarim.xlsx", updated.FileName)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(ctx, domain.IngestionLogEntry{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIngestionLogListIsScopedAndPaged(t *testing.T) {
	repo := NewMemoryIngestionLogRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	owner := uuid.New()

	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		_, err := repo.Create(ctx, domain.IngestionLogEntry{OwnerID: owner, FileName: name})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, domain.IngestionLogEntry{OwnerID: uuid.New(), FileName: "other.xlsx"})
	require.NoError(t, err)

	all, err := repo.List(ctx, owner, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.xlsx", all[0].FileName)
	assert.Equal(t, "a.xlsx", all[2].FileName)

	page, err := repo.List(ctx, owner, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b.xlsx", page[0].FileName)

	empty, err := repo.List(ctx, owner, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRecordRepository(t *testing.T) {
	repo := NewMemoryRecordRepository()
	ctx := context.Background()
	rows := []domain.Row{
		{OwnerID: uuid.New(), Record: domain.Grant{GrantName: "a"}},
		{OwnerID: uuid.New(), Record: domain.Grant{GrantName: "b"}},
	}

	n, err := repo.InsertBatch(ctx, domain.TableGrants, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := repo.Count(ctx, domain.TableGrants)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = repo.InsertBatch(ctx, domain.TableTabarim, rows)
	assert.Error(t, err)

	removed, err := repo.DeleteAll(ctx, domain.TableGrants)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	assert.Empty(t, repo.Rows(domain.TableGrants))
}

func TestMemoryReplaceAllIsAllOrNothing(t *testing.T) {
	repo := NewMemoryRecordRepository()
	ctx := context.Background()
	owner := uuid.New()

	_, err := repo.InsertBatch(ctx, domain.TableGrants, []domain.Row{
		{OwnerID: owner, Record: domain.Grant{GrantName: "old"}},
	})
	require.NoError(t, err)

	_, err = repo.ReplaceAll(ctx, domain.TableGrants, [][]domain.Row{
		{{OwnerID: owner, Record: domain.Grant{GrantName: "new"}}},
		{{OwnerID: owner, Record: domain.Tabar{TabarName: "wrong table"}}},
	})
	require.Error(t, err)
	rows := repo.Rows(domain.TableGrants)
	require.Len(t, rows, 1, "a rejected replace keeps the previous records")
	assert.Equal(t, "old", rows[0].Record.(domain.Grant).GrantName)

	cleared, err := repo.ReplaceAll(ctx, domain.TableGrants, [][]domain.Row{
		{{OwnerID: owner, Record: domain.Grant{GrantName: "a"}}},
		{{OwnerID: owner, Record: domain.Grant{GrantName: "b"}}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)
	assert.Len(t, repo.Rows(domain.TableGrants), 2)
}
