package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printer-bridge/internal/model"
)

func record(method, key string, status model.OperationStatus, startedAt time.Time) *model.OperationRecord {
	op := &model.OperationRecord{
		ID:        uuid.New(),
		Method:    method,
		Status:    status,
		StartedAt: startedAt,
	}
	if key != "" {
		op.ConnectionKey = &key
	}
	return op
}

func TestMemoryCreateGetUpdate(t *testing.T) {
	repo := NewMemoryRepository(10)
	ctx := context.Background()

	op := record("printDocument", "lan:192.168.1.20", model.OperationStatusProcessing, time.Now())
	require.NoError(t, repo.Create(ctx, op))
	assert.Error(t, repo.Create(ctx, op), "duplicate id")

	op.Attempts = 2
	op.Complete(model.OperationStatusSuccess, "", "")
	require.NoError(t, repo.Update(ctx, op))

	got, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OperationStatusSuccess, got.Status)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.DurationMs)

	got.Method = "mutated"
	again, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, "printDocument", again.Method)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, record("x", "", model.OperationStatusFailed, time.Now())), ErrNotFound)
}

func TestMemoryRingOverwritesOldest(t *testing.T) {
	repo := NewMemoryRepository(3)
	ctx := context.Background()
	base := time.Now()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		op := record("getStatus", "", model.OperationStatusSuccess, base.Add(time.Duration(i)*time.Second))
		ids = append(ids, op.ID)
		require.NoError(t, repo.Create(ctx, op))
	}

	ops, total, err := repo.List(ctx, model.OperationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []uuid.UUID{ids[4], ids[3], ids[2]}, []uuid.UUID{ops[0].ID, ops[1].ID, ops[2].ID})

	_, err = repo.GetByID(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListFilterAndPage(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	require.NoError(t, repo.Create(ctx, record("printDocument", "lan:a", model.OperationStatusSuccess, base)))
	require.NoError(t, repo.Create(ctx, record("printDocument", "bluetooth:/dev/rfcomm0", model.OperationStatusFailed, base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, record("getStatus", "lan:a", model.OperationStatusSuccess, base.Add(2*time.Minute))))
	require.NoError(t, repo.Create(ctx, record("findPrinters", "", model.OperationStatusSuccess, base.Add(3*time.Minute))))

	ops, total, err := repo.List(ctx, model.OperationFilter{Method: "printDocument"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, ops, 2)

	ops, total, err = repo.List(ctx, model.OperationFilter{ConnectionKey: "lan:a", Status: model.OperationStatusSuccess})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "getStatus", ops[0].Method)

	since := base.Add(90 * time.Second)
	_, total, err = repo.List(ctx, model.OperationFilter{Since: &since})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	ops, total, err = repo.List(ctx, model.OperationFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, ops, 1)
	assert.Equal(t, "getStatus", ops[0].Method)

	ops, _, err = repo.List(ctx, model.OperationFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestMemoryDeleteOlderThan(t *testing.T) {
	repo := NewMemoryRepository(10)
	ctx := context.Background()
	now := time.Now()

	old := record("printDocument", "", model.OperationStatusSuccess, now.Add(-48*time.Hour))
	fresh := record("printDocument", "", model.OperationStatusSuccess, now)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByID(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestBuildOperationWhere(t *testing.T) {
	where, args := buildOperationWhere(model.OperationFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	where, args = buildOperationWhere(model.OperationFilter{
		Method:        "printDocument",
		ConnectionKey: "lan:192.168.1.20",
		Status:        model.OperationStatusFailed,
		Since:         &since,
	})
	assert.Equal(t, " WHERE method = $1 AND connection_key = $2 AND status = $3 AND started_at >= $4", where)
	assert.Equal(t, []interface{}{"printDocument", "lan:192.168.1.20", model.OperationStatusFailed, since}, args)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, normalizeLimit(0))
	assert.Equal(t, 10, normalizeLimit(10))
	assert.Equal(t, maxListLimit, normalizeLimit(10_000))
}
