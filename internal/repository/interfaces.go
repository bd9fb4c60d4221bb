// internal/repository/interfaces.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"printer-bridge/internal/model"
)

// ErrNotFound is returned when a journal entry does not exist
var ErrNotFound = errors.New("operation not found")

// OperationRepository stores the operation journal
type OperationRepository interface {
	Create(ctx context.Context, op *model.OperationRecord) error
	Update(ctx context.Context, op *model.OperationRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.OperationRecord, error)

	// List returns matching entries, newest first, and the total match count
	List(ctx context.Context, filter model.OperationFilter) ([]*model.OperationRecord, int, error)

	// DeleteOlderThan prunes entries started before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// normalizeLimit clamps a page size
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
