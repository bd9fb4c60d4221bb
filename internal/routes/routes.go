// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "printer-bridge/docs"
	"printer-bridge/internal/callback"
	"printer-bridge/internal/config"
	"printer-bridge/internal/handler"
	"printer-bridge/internal/middleware"
	"printer-bridge/internal/service"
	"printer-bridge/internal/utils"
)

// Dependencies are the components the HTTP surface is built on
type Dependencies struct {
	// DB is nil when the journal is kept in memory
	DB        handler.Pinger
	Service   *service.PrinterService
	Journal   *service.Journal
	Callbacks *callback.Registry
	Events    *callback.Dispatcher
}

// Router holds all dependencies for routing
type Router struct {
	config *config.Config
	logger *zap.Logger
	deps   Dependencies

	wsHandler *handler.WebSocketHandler
}

// NewRouter creates a new router instance
func NewRouter(config *config.Config, logger *zap.Logger, deps Dependencies) *Router {
	return &Router{
		config: config,
		logger: logger,
		deps:   deps,
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

// WebSocket returns the WebSocket handler once SetupRouter has run
func (r *Router) WebSocket() *handler.WebSocketHandler {
	return r.wsHandler
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	var events handler.EventStats
	if r.deps.Events != nil {
		events = r.deps.Events
	}

	healthHandler := handler.NewHealthHandler(r.deps.DB, r.deps.Service, events, r.config, r.logger)
	methodHandler := handler.NewMethodHandler(r.deps.Service, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.deps.Service, r.logger)
	operationHandler := handler.NewOperationHandler(r.deps.Journal, r.logger)
	r.wsHandler = handler.NewWebSocketHandler(r.deps.Service, r.deps.Callbacks, r.config.Security.AllowedOrigins, r.logger)

	r.addHealthRoutes(router, healthHandler)

	apiV1 := router.Group("/api/v1")
	r.addMethodRoutes(apiV1, methodHandler)
	r.addPrinterRoutes(apiV1, methodHandler)
	r.addDiscoveryRoutes(apiV1, discoveryHandler)
	r.addOperationRoutes(apiV1, operationHandler)

	r.addWebSocketRoutes(router, r.wsHandler)
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/health/sessions", handler.SessionsCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}

// addMethodRoutes exposes the bridge method table
func (r *Router) addMethodRoutes(api *gin.RouterGroup, handler *handler.MethodHandler) {
	methods := api.Group("/methods")
	{
		methods.GET("", handler.ListMethods)
		methods.POST("/:method", handler.CallMethod)
	}
}

// addPrinterRoutes sets up REST aliases for the bridge methods
func (r *Router) addPrinterRoutes(api *gin.RouterGroup, handler *handler.MethodHandler) {
	printers := api.Group("/printers")
	{
		printers.POST("/discover", handler.Method(service.MethodFindPrinters))
		printers.POST("/open", handler.Method(service.MethodOpenConnection))
		printers.POST("/close", handler.Method(service.MethodCloseConnection))
		printers.POST("/status", handler.Method(service.MethodGetStatus))
		printers.POST("/print", handler.Method(service.MethodPrintDocument))
		printers.POST("/display", handler.Method(service.MethodUpdateDisplay))
		printers.POST("/raw", handler.Method(service.MethodPrintRawBytes))
		printers.POST("/input-listener/start", handler.Method(service.MethodStartInputListener))
		printers.POST("/input-listener/stop", handler.Method(service.MethodStopInputListener))
		printers.POST("/monitor", handler.Method(service.MethodMonitor))
	}
}

// addDiscoveryRoutes sets up discovery metadata routes
func (r *Router) addDiscoveryRoutes(api *gin.RouterGroup, handler *handler.DiscoveryHandler) {
	discovery := api.Group("/discovery")
	{
		discovery.GET("/interfaces", handler.GetInterfaces)
	}
}

// addOperationRoutes sets up the operation journal routes
func (r *Router) addOperationRoutes(api *gin.RouterGroup, handler *handler.OperationHandler) {
	operations := api.Group("/operations")
	{
		operations.GET("", handler.ListOperations)
		operations.GET("/:id", handler.GetOperation)
	}
}

// addWebSocketRoutes sets up WebSocket routes
func (r *Router) addWebSocketRoutes(router *gin.Engine, handler *handler.WebSocketHandler) {
	ws := router.Group("/ws")
	{
		ws.GET("", handler.HandleConnection)
		ws.GET("/stats", handler.GetStats)
	}
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
