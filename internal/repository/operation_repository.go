// internal/repository/operation_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-bridge/internal/database"
	"printer-bridge/internal/model"
	"printer-bridge/internal/utils"
)

const operationColumns = `id, method, connection_key, callback_id, status, attempts,
	error_code, error_message, started_at, completed_at, duration_ms, metadata`

// operationRepository implements OperationRepository on PostgreSQL
type operationRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewOperationRepository creates a PostgreSQL backed journal
func NewOperationRepository(db *database.DB, logger *zap.Logger) OperationRepository {
	return &operationRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "operation-repository"),
	}
}

// Create inserts a new journal entry
func (r *operationRepository) Create(ctx context.Context, op *model.OperationRecord) error {
	query := `
		INSERT INTO printer_operations (` + operationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		op.ID, op.Method, op.ConnectionKey, op.CallbackID, op.Status, op.Attempts,
		op.ErrorCode, op.ErrorMessage, op.StartedAt, op.CompletedAt, op.DurationMs, op.Metadata,
	)
	if err != nil {
		r.logger.Error("Failed to create operation", zap.Error(err))
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

// Update stores the outcome of a journal entry
func (r *operationRepository) Update(ctx context.Context, op *model.OperationRecord) error {
	query := `
		UPDATE printer_operations SET
			status = $2, attempts = $3, error_code = $4, error_message = $5,
			completed_at = $6, duration_ms = $7, metadata = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		op.ID, op.Status, op.Attempts, op.ErrorCode, op.ErrorMessage,
		op.CompletedAt, op.DurationMs, op.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, op.ID)
	}
	return nil
}

// GetByID retrieves a journal entry
func (r *operationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.OperationRecord, error) {
	query := `SELECT ` + operationColumns + ` FROM printer_operations WHERE id = $1`

	op, err := scanOperation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

// List retrieves entries with filtering and pagination
func (r *operationRepository) List(ctx context.Context, filter model.OperationFilter) ([]*model.OperationRecord, int, error) {
	whereClause, args := buildOperationWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM printer_operations` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count operations: %w", err)
	}

	limit := normalizeLimit(filter.Limit)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM printer_operations%s ORDER BY started_at DESC LIMIT $%d OFFSET $%d`,
		operationColumns, whereClause, len(args)+1, len(args)+2)

	args = append(args, limit, offset)
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, args, time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	var operations []*model.OperationRecord
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan operation: %w", err)
		}
		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate operations: %w", err)
	}

	return operations, total, nil
}

// DeleteOlderThan prunes entries started before cutoff
func (r *operationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM printer_operations WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old operations: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	r.logger.Info("Old operations deleted", zap.Int64("count", deleted), zap.Time("cutoff", cutoff))
	return deleted, nil
}

// buildOperationWhere builds the WHERE clause and its positional arguments
func buildOperationWhere(filter model.OperationFilter) (string, []interface{}) {
	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Method != "" {
		whereConditions = append(whereConditions, fmt.Sprintf("method = $%d", argIndex))
		args = append(args, filter.Method)
		argIndex++
	}

	if filter.ConnectionKey != "" {
		whereConditions = append(whereConditions, fmt.Sprintf("connection_key = $%d", argIndex))
		args = append(args, filter.ConnectionKey)
		argIndex++
	}

	if filter.Status != "" {
		whereConditions = append(whereConditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Since != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("started_at >= $%d", argIndex))
		args = append(args, *filter.Since)
	}

	if len(whereConditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(whereConditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOperation(row rowScanner) (*model.OperationRecord, error) {
	op := &model.OperationRecord{}
	var (
		connectionKey, callbackID, errorCode, errorMessage sql.NullString
		completedAt                                        sql.NullTime
		durationMs                                         sql.NullInt64
	)

	err := row.Scan(
		&op.ID, &op.Method, &connectionKey, &callbackID, &op.Status, &op.Attempts,
		&errorCode, &errorMessage, &op.StartedAt, &completedAt, &durationMs, &op.Metadata,
	)
	if err != nil {
		return nil, err
	}

	op.ConnectionKey = nullString(connectionKey)
	op.CallbackID = nullString(callbackID)
	op.ErrorCode = nullString(errorCode)
	op.ErrorMessage = nullString(errorMessage)
	if completedAt.Valid {
		op.CompletedAt = &completedAt.Time
	}
	if durationMs.Valid {
		d := int(durationMs.Int64)
		op.DurationMs = &d
	}
	return op, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
