// internal/service/journal.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/model"
	"printer-bridge/internal/repository"
)

const journalWriteTimeout = 5 * time.Second

// Journal records every bridge operation. Write failures are logged and never
// fail the operation itself.
type Journal struct {
	repo      repository.OperationRepository
	retention time.Duration
	logger    *zap.Logger
}

// NewJournal creates a journal over repo. Entries older than retention are
// removed by Prune; a zero retention keeps everything.
func NewJournal(repo repository.OperationRepository, retention time.Duration, logger *zap.Logger) *Journal {
	return &Journal{
		repo:      repo,
		retention: retention,
		logger:    logger,
	}
}

// Begin records a PROCESSING entry for a new operation
func (j *Journal) Begin(ctx context.Context, method string, key *model.ConnectionKey, callbackID string) *model.OperationRecord {
	op := &model.OperationRecord{
		ID:        uuid.New(),
		Method:    method,
		Status:    model.OperationStatusProcessing,
		StartedAt: time.Now(),
	}
	if key != nil {
		k := key.String()
		op.ConnectionKey = &k
	}
	if callbackID != "" {
		op.CallbackID = &callbackID
	}

	writeCtx, cancel := j.writeContext(ctx)
	defer cancel()
	if err := j.repo.Create(writeCtx, op); err != nil {
		j.logger.Warn("Failed to journal operation start",
			zap.String("operation_id", op.ID.String()),
			zap.String("method", method),
			zap.Error(err),
		)
	}
	return op
}

// Finish stores the outcome of op
func (j *Journal) Finish(ctx context.Context, op *model.OperationRecord, attempts int, err error) {
	op.Attempts = attempts

	switch code := apperror.CodeOf(err); code {
	case "":
		op.Complete(model.OperationStatusSuccess, "", "")
	case apperror.CodeTimeout:
		op.Complete(model.OperationStatusTimeout, string(code), err.Error())
	default:
		op.Complete(model.OperationStatusFailed, string(code), err.Error())
	}

	writeCtx, cancel := j.writeContext(ctx)
	defer cancel()
	if updateErr := j.repo.Update(writeCtx, op); updateErr != nil {
		j.logger.Warn("Failed to journal operation result",
			zap.String("operation_id", op.ID.String()),
			zap.String("status", string(op.Status)),
			zap.Error(updateErr),
		)
	}
}

// Get returns one journal entry
func (j *Journal) Get(ctx context.Context, id uuid.UUID) (*model.OperationRecord, error) {
	return j.repo.GetByID(ctx, id)
}

// List returns journal entries, newest first, and the total match count
func (j *Journal) List(ctx context.Context, filter model.OperationFilter) ([]*model.OperationRecord, int, error) {
	return j.repo.List(ctx, filter)
}

// Prune removes entries older than the retention period
func (j *Journal) Prune(ctx context.Context) (int64, error) {
	if j.retention <= 0 {
		return 0, nil
	}
	return j.repo.DeleteOlderThan(ctx, time.Now().Add(-j.retention))
}

// RunCleanup prunes the journal every interval until ctx is done
func (j *Journal) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 || j.retention <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := j.Prune(ctx)
			if err != nil {
				j.logger.Error("Failed to prune operation journal", zap.Error(err))
				continue
			}
			if deleted > 0 {
				j.logger.Debug("Operation journal pruned", zap.Int64("deleted", deleted))
			}
		}
	}
}

// writeContext detaches journal writes from a caller that may already be gone
func (j *Journal) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
}
