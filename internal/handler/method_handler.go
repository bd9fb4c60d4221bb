// internal/handler/method_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/callback"
	"printer-bridge/internal/service"
	"printer-bridge/internal/utils"
)

// MethodCaller runs bridge methods
type MethodCaller interface {
	Call(ctx context.Context, method string, args json.RawMessage, sink callback.Sink) (interface{}, error)
}

// MethodHandler exposes the bridge methods over HTTP. Push events for
// callback ids passed here are delivered to WebSocket clients that
// subscribed to them.
type MethodHandler struct {
	caller MethodCaller
	logger *utils.ServiceLogger
}

// NewMethodHandler creates a new method handler
func NewMethodHandler(caller MethodCaller, logger *zap.Logger) *MethodHandler {
	return &MethodHandler{
		caller: caller,
		logger: utils.NewServiceLogger(logger, "method-handler"),
	}
}

// ListMethods returns the supported method names
// @Summary List bridge methods
// @Tags Methods
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string} "Supported methods"
// @Router /api/v1/methods [get]
func (h *MethodHandler) ListMethods(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Supported methods", service.Methods)
}

// CallMethod runs the method named in the path with the JSON body as arguments
// @Summary Call a bridge method
// @Description Runs findPrinters, openConnection, closeConnection, getStatus, printDocument, updateDisplay, printRawBytes, startInputListener, stopInputListener or monitor
// @Tags Methods
// @Accept json
// @Produce json
// @Param method path string true "Method name"
// @Param args body object false "Method arguments"
// @Success 200 {object} utils.APIResponse "Method result"
// @Failure 400 {object} utils.APIResponse "Invalid arguments or document"
// @Failure 403 {object} utils.APIResponse "Permission denied"
// @Failure 501 {object} utils.APIResponse "Unknown method"
// @Failure 502 {object} utils.APIResponse "Printer communication failed"
// @Router /api/v1/methods/{method} [post]
func (h *MethodHandler) CallMethod(c *gin.Context) {
	h.call(c, c.Param("method"))
}

// Method returns a handler bound to one method, used for the REST aliases
func (h *MethodHandler) Method(method string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.call(c, method)
	}
}

func (h *MethodHandler) call(c *gin.Context, method string) {
	body, err := c.GetRawData()
	if err != nil {
		utils.AppErrorResponse(c, apperror.Wrap(apperror.CodeInvalidArgument, "failed to read request body", err))
		return
	}

	result, err := h.caller.Call(c.Request.Context(), method, json.RawMessage(body), nil)
	if err != nil {
		utils.LoggerWithRequestID(h.logger.Logger, c.GetString("request_id")).Warn("Method call failed",
			zap.String("method", method),
			zap.String("code", string(apperror.CodeOf(err))),
			zap.Error(err),
		)
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Method completed", result)
}
