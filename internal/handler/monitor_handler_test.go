// internal/handler/monitor_handler_test.go
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"macmon/internal/config"
	"macmon/internal/engine"
	"macmon/internal/model"
	"macmon/internal/probe"
	"macmon/internal/utils"
)

type fakeEnumerator struct{}

func (fakeEnumerator) ListPorts(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeProber struct{}

func (fakeProber) Probe(ctx context.Context, port string) probe.Result {
	return probe.NotFound()
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.MonitorConfig{
		TickInterval: time.Second,
		Workers:      2,
		QueueSize:    8,
	}
	return engine.New(cfg, fakeEnumerator{}, fakeProber{}, engine.NewResultLog(), nil, zap.NewNop())
}

func newTestRouter(t *testing.T, eng *engine.Engine) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := config.NewSettingsStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	h := NewMonitorHandler(eng, store, zap.NewNop())

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/monitor/start", h.StartMonitoring)
	api.POST("/monitor/stop", h.StopMonitoring)
	api.GET("/monitor/status", h.GetStatus)
	api.GET("/records", h.ListRecords)
	api.DELETE("/records", h.ClearRecords)
	api.DELETE("/records/failed", h.ClearFailedRecords)
	api.POST("/records/dedup", h.DedupRecords)
	api.POST("/export", h.ExportRecords)
	api.GET("/settings", h.GetSettings)
	api.PUT("/settings", h.UpdateSettings)
	return router
}

func doRequest(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestMonitorStartStop(t *testing.T) {
	eng := newTestEngine(t)
	router := newTestRouter(t, eng)

	w := doRequest(router, http.MethodPost, "/api/v1/monitor/start", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, eng.IsMonitoring())

	w = doRequest(router, http.MethodPost, "/api/v1/monitor/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/monitor/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, eng.IsMonitoring())

	w = doRequest(router, http.MethodPost, "/api/v1/monitor/stop", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetStatus(t *testing.T) {
	eng := newTestEngine(t)
	router := newTestRouter(t, eng)

	w := doRequest(router, http.MethodGet, "/api/v1/monitor/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["monitoring"])
	assert.Equal(t, float64(2), data["workers"])
}

func seedMixedRecords(eng *engine.Engine) {
	now := time.Now()
	records := []model.ProbeRecord{
		{ID: uuid.New(), Timestamp: now, Port: "COM1", MAC: "aa:bb:cc:dd:ee:01", Status: model.StatusOK},
		{ID: uuid.New(), Timestamp: now, Port: "COM2", Status: model.StatusCommError, Detail: "sync timeout"},
		{ID: uuid.New(), Timestamp: now, Port: "COM3", MAC: "aa:bb:cc:dd:ee:01", Status: model.StatusOK},
	}
	for _, r := range records {
		eng.Log().Append(r)
	}
}

func TestListRecords(t *testing.T) {
	eng := newTestEngine(t)
	router := newTestRouter(t, eng)
	seedMixedRecords(eng)

	t.Run("all records", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/records", nil)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeResponse(t, w)
		data, ok := resp.Data.([]interface{})
		require.True(t, ok)
		assert.Len(t, data, 3)
	})

	t.Run("failure bucket", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/records?status=failure", nil)
		resp := decodeResponse(t, w)
		data := resp.Data.([]interface{})
		require.Len(t, data, 1)
	})

	t.Run("dedup projection", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/records?dedup=true", nil)
		resp := decodeResponse(t, w)
		data := resp.Data.([]interface{})
		assert.Len(t, data, 2)
		// Projection is read-only; the log is untouched.
		assert.Equal(t, 3, eng.Log().Len())
	})

	t.Run("text query", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/records?query=sync+timeout", nil)
		resp := decodeResponse(t, w)
		data := resp.Data.([]interface{})
		require.Len(t, data, 1)
	})
}

func TestRecordMutations(t *testing.T) {
	eng := newTestEngine(t)
	router := newTestRouter(t, eng)
	seedMixedRecords(eng)

	w := doRequest(router, http.MethodPost, "/api/v1/records/dedup", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, eng.Log().Len())

	w = doRequest(router, http.MethodDelete, "/api/v1/records/failed", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, eng.Log().Len())

	w = doRequest(router, http.MethodDelete, "/api/v1/records", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, eng.Log().Len())
}

func TestExportRecords(t *testing.T) {
	eng := newTestEngine(t)
	router := newTestRouter(t, eng)
	seedMixedRecords(eng)

	t.Run("csv attachment", func(t *testing.T) {
		body, _ := json.Marshal(ExportRequest{Format: "csv", Status: "success", Dedup: true})
		w := doRequest(router, http.MethodPost, "/api/v1/export", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Body.String(), "timestamp,port,mac,status")
		assert.Contains(t, w.Body.String(), "aa:bb:cc:dd:ee:01")
	})

	t.Run("unknown format rejected", func(t *testing.T) {
		body, _ := json.Marshal(ExportRequest{Format: "xlsx"})
		w := doRequest(router, http.MethodPost, "/api/v1/export", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettingsRoundTrip(t *testing.T) {
	eng := newTestEngine(t)
	router := newTestRouter(t, eng)

	w := doRequest(router, http.MethodGet, "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "csv", data["export_format"])

	body, _ := json.Marshal(config.Settings{
		ExportFormat: "json",
		StatusFilter: "success",
		LastQuery:    "esp",
	})
	w = doRequest(router, http.MethodPut, "/api/v1/settings", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/settings", nil)
	resp = decodeResponse(t, w)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "json", data["export_format"])
	assert.Equal(t, "esp", data["last_query"])
}

func TestUpdateSettingsRejectsBadFormat(t *testing.T) {
	eng := newTestEngine(t)
	router := newTestRouter(t, eng)

	body, _ := json.Marshal(config.Settings{ExportFormat: "xlsx"})
	w := doRequest(router, http.MethodPut, "/api/v1/settings", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
