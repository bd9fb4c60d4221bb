// internal/model/operation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// OperationStatus represents the outcome of a bridge operation
type OperationStatus string

const (
	OperationStatusProcessing OperationStatus = "PROCESSING"
	OperationStatusSuccess    OperationStatus = "SUCCESS"
	OperationStatusFailed     OperationStatus = "FAILED"
	OperationStatusTimeout    OperationStatus = "TIMEOUT"
)

// OperationRecord is one entry of the operation journal
type OperationRecord struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Method        string          `json:"method" db:"method"`
	ConnectionKey *string         `json:"connection_key" db:"connection_key"`
	CallbackID    *string         `json:"callback_id" db:"callback_id"`
	Status        OperationStatus `json:"status" db:"status"`
	Attempts      int             `json:"attempts" db:"attempts"`
	ErrorCode     *string         `json:"error_code" db:"error_code"`
	ErrorMessage  *string         `json:"error_message" db:"error_message"`
	StartedAt     time.Time       `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at" db:"completed_at"`
	DurationMs    *int            `json:"duration_ms" db:"duration_ms"`
	Metadata      JSONObject      `json:"metadata" db:"metadata"`
}

// IsCompleted checks if the operation has finished
func (op *OperationRecord) IsCompleted() bool {
	return op.Status == OperationStatusSuccess ||
		op.Status == OperationStatusFailed ||
		op.Status == OperationStatusTimeout
}

// Complete stamps the completion time, duration and outcome
func (op *OperationRecord) Complete(status OperationStatus, errorCode, errorMessage string) {
	now := time.Now()
	duration := int(now.Sub(op.StartedAt).Milliseconds())
	op.Status = status
	op.CompletedAt = &now
	op.DurationMs = &duration
	if errorCode != "" {
		op.ErrorCode = &errorCode
	}
	if errorMessage != "" {
		op.ErrorMessage = &errorMessage
	}
}

// OperationFilter narrows journal queries
type OperationFilter struct {
	Method        string
	ConnectionKey string
	Status        OperationStatus
	Since         *time.Time
	Limit         int
	Offset        int
}
