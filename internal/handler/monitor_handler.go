// internal/handler/monitor_handler.go
package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macmon/internal/config"
	"macmon/internal/engine"
	"macmon/internal/export"
	"macmon/internal/model"
	"macmon/internal/utils"
)

// MonitorHandler exposes the discovery engine over REST: monitor control,
// record projections, bulk log mutations, export and user settings.
type MonitorHandler struct {
	engine   *engine.Engine
	settings *config.SettingsStore
	logger   *utils.ServiceLogger
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(eng *engine.Engine, settings *config.SettingsStore, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{
		engine:   eng,
		settings: settings,
		logger:   utils.NewServiceLogger(logger, "monitor-handler"),
	}
}

// StartMonitoring enables the discovery loop
// @Summary Start monitoring
// @Description Enable periodic port discovery and device probing
// @Tags Monitor
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse "Monitoring started"
// @Success 409 {object} utils.APIResponse "Monitoring already active"
// @Router /api/v1/monitor/start [post]
func (h *MonitorHandler) StartMonitoring(c *gin.Context) {
	if !h.engine.StartMonitoring() {
		utils.ErrorResponse(c, http.StatusConflict, "Monitoring already active", nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Monitoring started", h.engine.State())
}

// StopMonitoring disables the discovery loop
// @Summary Stop monitoring
// @Description Disable periodic port discovery; in-flight probes still complete
// @Tags Monitor
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse "Monitoring stopped"
// @Success 409 {object} utils.APIResponse "Monitoring not active"
// @Router /api/v1/monitor/stop [post]
func (h *MonitorHandler) StopMonitoring(c *gin.Context) {
	if !h.engine.StopMonitoring() {
		utils.ErrorResponse(c, http.StatusConflict, "Monitoring not active", nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Monitoring stopped", h.engine.State())
}

// GetStatus returns the monitor status snapshot
// @Summary Monitor status
// @Description Get the current discovery engine state
// @Tags Monitor
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.MonitorState}
// @Router /api/v1/monitor/status [get]
func (h *MonitorHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Monitor status", h.engine.State())
}

// filterFromQuery builds a record filter from request query parameters.
func filterFromQuery(c *gin.Context) model.Filter {
	return model.Filter{
		Query:  c.Query("query"),
		Status: model.ParseStatusBucket(c.Query("status")),
		Dedup:  c.Query("dedup") == "true" || c.Query("dedup") == "1",
	}
}

// ListRecords returns the filtered record projection
// @Summary List probe records
// @Description Get probe records, optionally filtered by text query, status bucket and deduplication
// @Tags Records
// @Accept json
// @Produce json
// @Param query query string false "Case-insensitive text filter"
// @Param status query string false "Status bucket" Enums(all, success, failure)
// @Param dedup query bool false "Keep only the first record per MAC"
// @Success 200 {object} utils.APIResponse{data=[]model.ProbeRecord}
// @Router /api/v1/records [get]
func (h *MonitorHandler) ListRecords(c *gin.Context) {
	filter := filterFromQuery(c)
	records := engine.Project(h.engine.Log().Snapshot(), filter)
	utils.SuccessResponse(c, http.StatusOK, fmt.Sprintf("%d records", len(records)), records)
}

// ClearRecords empties the result log
// @Summary Clear all records
// @Tags Records
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/records [delete]
func (h *MonitorHandler) ClearRecords(c *gin.Context) {
	removed := h.engine.ClearAll()
	utils.SuccessResponse(c, http.StatusOK, "Records cleared", gin.H{"removed": removed})
}

// ClearFailedRecords removes failure records from the log
// @Summary Clear failed records
// @Tags Records
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/records/failed [delete]
func (h *MonitorHandler) ClearFailedRecords(c *gin.Context) {
	removed := h.engine.RemoveFailed()
	utils.SuccessResponse(c, http.StatusOK, "Failed records removed", gin.H{"removed": removed})
}

// DedupRecords removes duplicate MACs from the log
// @Summary Remove duplicate records
// @Description Keep only the first record per distinct MAC; records without a MAC are preserved
// @Tags Records
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/v1/records/dedup [post]
func (h *MonitorHandler) DedupRecords(c *gin.Context) {
	removed := h.engine.RemoveDuplicates()
	utils.SuccessResponse(c, http.StatusOK, "Duplicate records removed", gin.H{"removed": removed})
}

// ExportRequest selects the projection and encoding for an export.
type ExportRequest struct {
	Format string `json:"format" example:"csv"`
	Query  string `json:"query"`
	Status string `json:"status" example:"all"`
	Dedup  bool   `json:"dedup"`
}

// ExportRecords streams the filtered projection as a file
// @Summary Export records
// @Description Export the filtered record projection as csv, json or a plain MAC list
// @Tags Records
// @Accept json
// @Produce octet-stream
// @Param request body ExportRequest true "Export parameters"
// @Success 200 {file} file "Exported records"
// @Failure 400 {object} utils.APIResponse "Invalid export parameters"
// @Router /api/v1/export [post]
func (h *MonitorHandler) ExportRecords(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid export format", err)
		return
	}

	filter := model.Filter{
		Query:  req.Query,
		Status: model.ParseStatusBucket(req.Status),
		Dedup:  req.Dedup,
	}
	records := engine.Project(h.engine.Log().Snapshot(), filter)

	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		h.logger.Error("Export failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Export failed", err)
		return
	}

	filename := fmt.Sprintf("mac_records_%s.%s", time.Now().Format("20060102_150405"), format.Extension())
	h.logger.Info("Records exported",
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
		zap.String("filename", filename),
	)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// GetSettings returns the persisted user settings
// @Summary Get settings
// @Tags Settings
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=config.Settings}
// @Router /api/v1/settings [get]
func (h *MonitorHandler) GetSettings(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Settings", h.settings.Load())
}

// UpdateSettings persists new user settings
// @Summary Update settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body config.Settings true "Settings"
// @Success 200 {object} utils.APIResponse{data=config.Settings}
// @Failure 400 {object} utils.APIResponse "Invalid settings"
// @Router /api/v1/settings [put]
func (h *MonitorHandler) UpdateSettings(c *gin.Context) {
	var settings config.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := export.ParseFormat(settings.ExportFormat); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid export format", err)
		return
	}

	if err := h.settings.Save(settings); err != nil {
		h.logger.Error("Failed to save settings", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Settings saved", settings)
}
