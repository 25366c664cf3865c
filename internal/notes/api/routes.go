package api

import (
	"net/http"
	"time"

	"github.com/blueplan/notes-go/internal/notes/config"
	"github.com/blueplan/notes-go/internal/notes/events"
	logx "github.com/blueplan/notes-go/internal/notes/log"
	"github.com/blueplan/notes-go/internal/notes/notes"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Router API路由器
type Router struct {
	engine   *gin.Engine
	config   *config.Config
	logger   *logx.Logger
	store    notes.Store
	hub      *events.Hub
	upgrader websocket.Upgrader
	started  time.Time
}

// NewRouter 创建新的路由器
func NewRouter(cfg *config.Config, logger *logx.Logger, store notes.Store, hub *events.Hub) *Router {
	// 设置Gin模式
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	// 添加中间件
	engine.Use(Recovery(logger))
	engine.Use(RequestID())
	engine.Use(LogRequest(logger))
	engine.Use(CORS())
	engine.Use(LimitRequestSize(cfg.API.MaxRequestSize))

	router := &Router{
		engine: engine,
		config: cfg,
		logger: logger,
		store:  store,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 与 CORS 策略一致：接受任意来源
			CheckOrigin: func(*http.Request) bool { return true },
		},
		started: time.Now(),
	}

	router.setupRoutes()

	return router
}

// Handler returns the http.Handler serving all routes
func (r *Router) Handler() http.Handler {
	return r.engine
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.handleHealth)
	r.engine.GET("/ping", r.handlePing)

	api := r.engine.Group("/api")
	{
		notesGroup := api.Group("/notes")
		{
			notesGroup.GET("", r.handleListNotes)
			notesGroup.POST("", r.handleCreateNote)
			notesGroup.DELETE("/:id", r.handleDeleteNote)
		}

		api.GET("/events", r.handleEvents)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "not_found", "路由不存在")
	})
	r.engine.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, "method_not_allowed", "不支持的请求方法")
	})
}

// handleHealth 处理健康检查
func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     r.config.App.Name,
		"version":     r.config.App.Version,
		"uptime":      time.Since(r.started).Round(time.Second).String(),
		"notes":       r.store.Len(),
		"subscribers": r.hub.Subscribers(),
	})
}

// handlePing 处理Ping请求
func (r *Router) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now(),
	})
}
