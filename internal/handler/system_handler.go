// internal/handler/system_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macmon/internal/enumerate"
	"macmon/internal/enumerate/usb"
	"macmon/internal/utils"
)

// SystemHandler exposes host-level diagnostics: the raw serial port list
// and the USB bridge inventory.
type SystemHandler struct {
	enumerator enumerate.PortEnumerator
	resolver   *usb.Resolver
	ws         *WebSocketHandler
	logger     *utils.ServiceLogger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(enumerator enumerate.PortEnumerator, resolver *usb.Resolver, ws *WebSocketHandler, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		enumerator: enumerator,
		resolver:   resolver,
		ws:         ws,
		logger:     utils.NewServiceLogger(logger, "system-handler"),
	}
}

// ListPorts returns the currently visible serial ports
// @Summary List serial ports
// @Description Get the raw serial port enumeration, independent of the monitor state
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string}
// @Failure 503 {object} utils.APIResponse "Serial subsystem unavailable"
// @Router /api/v1/system/ports [get]
func (h *SystemHandler) ListPorts(c *gin.Context) {
	ports, err := h.enumerator.ListPorts(c.Request.Context())
	if err != nil {
		h.logger.Error("Port enumeration failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Port enumeration failed", err)
		return
	}
	if ports == nil {
		ports = []string{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Serial ports", ports)
}

// ListBridges returns the attached USB-to-UART bridge inventory
// @Summary List USB bridges
// @Description Inventory attached USB-to-UART bridge chips for diagnostics
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]usb.Bridge}
// @Failure 503 {object} utils.APIResponse "USB enumeration unavailable"
// @Router /api/v1/system/bridges [get]
func (h *SystemHandler) ListBridges(c *gin.Context) {
	bridges, err := h.resolver.ListBridges(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "USB enumeration failed", err)
		return
	}
	if bridges == nil {
		bridges = []usb.Bridge{}
	}
	utils.SuccessResponse(c, http.StatusOK, "USB bridges", bridges)
}

// GetConnections returns WebSocket connection statistics
// @Summary WebSocket connection stats
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=ConnectionStats}
// @Router /api/v1/system/connections [get]
func (h *SystemHandler) GetConnections(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "WebSocket connections", h.ws.GetConnectionStats())
}
