// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"macmon/internal/config"
	"macmon/internal/engine"
	"macmon/internal/enumerate"
	"macmon/internal/enumerate/usb"
	"macmon/internal/handler"
	"macmon/internal/middleware"
	"macmon/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config     *config.Config
	logger     *zap.Logger
	engine     *engine.Engine
	enumerator enumerate.PortEnumerator
	resolver   *usb.Resolver
	settings   *config.SettingsStore
	eventBus   *handler.EventBus
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	eng *engine.Engine,
	enumerator enumerate.PortEnumerator,
	resolver *usb.Resolver,
	settings *config.SettingsStore,
	eventBus *handler.EventBus,
) *Router {
	return &Router{
		config:     cfg,
		logger:     logger,
		engine:     eng,
		enumerator: enumerator,
		resolver:   resolver,
		settings:   settings,
		eventBus:   eventBus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Server))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.config, r.engine, r.enumerator, r.logger)
	monitorHandler := handler.NewMonitorHandler(r.engine, r.settings, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.engine, r.eventBus, r.logger)
	systemHandler := handler.NewSystemHandler(r.enumerator, r.resolver, wsHandler, r.logger)

	r.addHealthRoutes(router, healthHandler)

	apiV1 := router.Group("/api/v1")
	r.addMonitorRoutes(apiV1, monitorHandler)
	r.addRecordRoutes(apiV1, monitorHandler)
	r.addSystemRoutes(apiV1, systemHandler)

	r.addWebSocketRoutes(router, wsHandler)
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}

// addMonitorRoutes sets up monitor control routes
func (r *Router) addMonitorRoutes(api *gin.RouterGroup, handler *handler.MonitorHandler) {
	monitor := api.Group("/monitor")
	{
		monitor.POST("/start", handler.StartMonitoring)
		monitor.POST("/stop", handler.StopMonitoring)
		monitor.GET("/status", handler.GetStatus)
	}
}

// addRecordRoutes sets up record projection, mutation, export and settings routes
func (r *Router) addRecordRoutes(api *gin.RouterGroup, handler *handler.MonitorHandler) {
	records := api.Group("/records")
	{
		records.GET("", handler.ListRecords)
		records.DELETE("", handler.ClearRecords)
		records.DELETE("/failed", handler.ClearFailedRecords)
		records.POST("/dedup", handler.DedupRecords)
	}

	api.POST("/export", handler.ExportRecords)

	settings := api.Group("/settings")
	{
		settings.GET("", handler.GetSettings)
		settings.PUT("", handler.UpdateSettings)
	}
}

// addSystemRoutes sets up host diagnostics routes
func (r *Router) addSystemRoutes(api *gin.RouterGroup, handler *handler.SystemHandler) {
	system := api.Group("/system")
	{
		system.GET("/ports", handler.ListPorts)
		system.GET("/bridges", handler.ListBridges)
		system.GET("/connections", handler.GetConnections)
	}
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(router *gin.Engine, handler *handler.WebSocketHandler) {
	ws := router.Group("/ws")
	{
		ws.GET("/events", handler.HandleEventConnection)
	}
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
