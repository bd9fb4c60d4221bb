// internal/handler/operation_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
	"printer-bridge/internal/repository"
	"printer-bridge/internal/utils"
)

// OperationJournal reads recorded bridge operations
type OperationJournal interface {
	Get(ctx context.Context, id uuid.UUID) (*model.OperationRecord, error)
	List(ctx context.Context, filter model.OperationFilter) ([]*model.OperationRecord, int, error)
}

// OperationHandler serves the operation journal
type OperationHandler struct {
	journal OperationJournal
	logger  *utils.ServiceLogger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(journal OperationJournal, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{
		journal: journal,
		logger:  utils.NewServiceLogger(logger, "operation-handler"),
	}
}

// ListOperations lists journal entries with filtering
// @Summary List operations
// @Description List recorded bridge operations, newest first
// @Tags Operations
// @Produce json
// @Param method query string false "Method name"
// @Param connection_key query string false "Connection key, e.g. lan:192.168.1.20"
// @Param status query string false "Status" Enums(PROCESSING, SUCCESS, FAILED, TIMEOUT)
// @Param since query string false "RFC3339 start time"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} utils.APIResponse "Operations retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Router /api/v1/operations [get]
func (h *OperationHandler) ListOperations(c *gin.Context) {
	filter := model.OperationFilter{
		Method:        c.Query("method"),
		ConnectionKey: c.Query("connection_key"),
		Status:        model.OperationStatus(c.Query("status")),
	}

	validationErrors := map[string]string{}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			validationErrors["since"] = "must be an RFC3339 time"
		} else {
			filter.Since = &t
		}
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			validationErrors["limit"] = "must be a non-negative integer"
		}
		filter.Limit = n
	}
	if offset := c.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			validationErrors["offset"] = "must be a non-negative integer"
		}
		filter.Offset = n
	}
	if len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	operations, total, err := h.journal.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list operations", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list operations", err)
		return
	}
	if operations == nil {
		operations = []*model.OperationRecord{}
	}

	utils.SuccessResponse(c, http.StatusOK, "Operations retrieved", gin.H{
		"operations": operations,
		"total":      total,
		"limit":      filter.Limit,
		"offset":     filter.Offset,
	})
}

// GetOperation returns one journal entry
// @Summary Get operation
// @Tags Operations
// @Produce json
// @Param id path string true "Operation ID"
// @Success 200 {object} utils.APIResponse{data=model.OperationRecord} "Operation retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid operation ID"
// @Failure 404 {object} utils.APIResponse "Operation not found"
// @Router /api/v1/operations/{id} [get]
func (h *OperationHandler) GetOperation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid operation ID", err)
		return
	}

	operation, err := h.journal.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.ErrorResponse(c, http.StatusNotFound, "Operation not found", err)
		return
	}
	if err != nil {
		h.logger.Error("Failed to get operation", zap.String("operation_id", id.String()), zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get operation", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Operation retrieved", operation)
}
