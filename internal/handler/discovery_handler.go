// internal/handler/discovery_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-bridge/internal/model"
	"printer-bridge/internal/utils"
)

// InterfaceLister reports which interface kinds can be scanned on this host
type InterfaceLister interface {
	AvailableInterfaces() []model.InterfaceKind
}

// DiscoveryHandler handles discovery metadata requests. Scans themselves run
// through the findPrinters method.
type DiscoveryHandler struct {
	interfaces InterfaceLister
	logger     *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(interfaces InterfaceLister, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		interfaces: interfaces,
		logger:     utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// GetInterfaces returns the interface kinds with a usable scanner
// @Summary Available discovery interfaces
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{interfaces=[]string}} "Available interfaces"
// @Router /api/v1/discovery/interfaces [get]
func (h *DiscoveryHandler) GetInterfaces(c *gin.Context) {
	kinds := h.interfaces.AvailableInterfaces()
	if kinds == nil {
		kinds = []model.InterfaceKind{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Available interfaces", gin.H{
		"interfaces": kinds,
	})
}
