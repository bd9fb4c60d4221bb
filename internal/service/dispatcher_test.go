package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/model"
	"printer-bridge/internal/repository"
)

func newTestDispatcher(workers int, timeout time.Duration) (*Dispatcher, repository.OperationRepository) {
	repo := repository.NewMemoryRepository(50)
	journal := NewJournal(repo, time.Hour, zap.NewNop())
	return NewDispatcher(workers, timeout, journal, zap.NewNop()), repo
}

func onlyRecord(t *testing.T, repo repository.OperationRepository) *model.OperationRecord {
	t.Helper()
	ops, total, err := repo.List(context.Background(), model.OperationFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	return ops[0]
}

func TestDispatcherSubmitSuccess(t *testing.T) {
	d, repo := newTestDispatcher(2, time.Second)
	key := model.ConnectionKey{Interface: model.InterfaceUSB, Identifier: "0519:0003"}

	value, err := d.Submit(context.Background(), Task{
		Method:     MethodGetStatus,
		Key:        &key,
		CallbackID: "cb-1",
		Run: func(ctx context.Context) (interface{}, int, error) {
			return "ok", 0, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)

	op := onlyRecord(t, repo)
	assert.Equal(t, model.OperationStatusSuccess, op.Status)
	assert.Equal(t, 1, op.Attempts, "zero attempts are recorded as one")
	assert.Equal(t, "usb:0519:0003", *op.ConnectionKey)
	assert.Equal(t, "cb-1", *op.CallbackID)
	assert.NotNil(t, op.DurationMs)
}

func TestDispatcherConvertsErrors(t *testing.T) {
	d, repo := newTestDispatcher(1, time.Second)

	_, err := d.Submit(context.Background(), Task{
		Method: MethodPrintRawBytes,
		Run: func(ctx context.Context) (interface{}, int, error) {
			return nil, 1, errLink
		},
	})
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)

	op := onlyRecord(t, repo)
	assert.Equal(t, model.OperationStatusFailed, op.Status)
	assert.Equal(t, string(apperror.CodeInternal), *op.ErrorCode)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	d, repo := newTestDispatcher(1, time.Second)

	_, err := d.Submit(context.Background(), Task{
		Method: MethodPrintDocument,
		Run: func(ctx context.Context) (interface{}, int, error) {
			panic("nil sequence")
		},
	})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	assert.Contains(t, err.Error(), "nil sequence")
	assert.Equal(t, model.OperationStatusFailed, onlyRecord(t, repo).Status)
}

func TestDispatcherTaskTimeout(t *testing.T) {
	d, repo := newTestDispatcher(1, time.Second)

	_, err := d.Submit(context.Background(), Task{
		Method:  MethodGetStatus,
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context) (interface{}, int, error) {
			<-ctx.Done()
			return nil, 1, ctx.Err()
		},
	})
	assert.Equal(t, apperror.CodeTimeout, apperror.CodeOf(err))
	assert.Equal(t, model.OperationStatusTimeout, onlyRecord(t, repo).Status)
}

func TestDispatcherCallerGivesUp(t *testing.T) {
	d, repo := newTestDispatcher(1, time.Second)

	release := make(chan struct{})
	var finished atomic.Bool

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := d.Submit(ctx, Task{
		Method: MethodPrintDocument,
		Run: func(ctx context.Context) (interface{}, int, error) {
			<-release
			finished.Store(ctx.Err() == nil)
			return true, 1, nil
		},
	})
	assert.Equal(t, apperror.CodeTimeout, apperror.CodeOf(err))

	// The task keeps its own context and still completes
	close(release)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.True(t, finished.Load())
	assert.Equal(t, model.OperationStatusSuccess, onlyRecord(t, repo).Status)
}

func TestDispatcherBoundsConcurrency(t *testing.T) {
	d, _ := newTestDispatcher(2, time.Second)

	var active, peak atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 6; i++ {
		go func() {
			_, _ = d.Submit(context.Background(), Task{
				Method: MethodGetStatus,
				Run: func(ctx context.Context) (interface{}, int, error) {
					n := active.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(10 * time.Millisecond)
					active.Add(-1)
					return nil, 1, nil
				},
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDispatcherRejectsAfterShutdown(t *testing.T) {
	d, _ := newTestDispatcher(1, time.Second)
	require.NoError(t, d.Shutdown(context.Background()))
	require.NoError(t, d.Shutdown(context.Background()), "second shutdown is a no-op")

	_, err := d.Submit(context.Background(), Task{
		Method: MethodGetStatus,
		Run: func(ctx context.Context) (interface{}, int, error) {
			return nil, 1, nil
		},
	})
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
}

func TestJournalPrune(t *testing.T) {
	repo := repository.NewMemoryRepository(10)
	journal := NewJournal(repo, time.Hour, zap.NewNop())
	ctx := context.Background()

	old := journal.Begin(ctx, MethodGetStatus, nil, "")
	old.StartedAt = time.Now().Add(-2 * time.Hour)
	journal.Finish(ctx, old, 1, nil)
	fresh := journal.Begin(ctx, MethodGetStatus, nil, "")

	deleted, err := journal.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = journal.Get(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = journal.Get(ctx, old.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	keepAll := NewJournal(repo, 0, zap.NewNop())
	deleted, err = keepAll.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
