// Package api provides the HTTP server of the demo program: stopwatch
// endpoints, Prometheus metrics and a websocket stream of ticks and logs.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Baduit/Timer/clock"
	"github.com/Baduit/Timer/executor"
	"github.com/Baduit/Timer/internal/config"
	"github.com/Baduit/Timer/internal/logger"
	"github.com/Baduit/Timer/metrics"
)

// Stopwatch creation: 60 per minute per IP, burst of 30
const (
	createRate  = 60
	createBurst = 30
)

type RESTServer struct {
	router     *gin.Engine
	source     clock.Source
	gatherer   prometheus.Gatherer
	hub        *WebSocketHub
	limiter    *RateLimiter
	ticker     *executor.Interval
	tickPeriod time.Duration
	uptime     clock.Clock

	mu          sync.Mutex
	httpServer  *http.Server
	stopwatches map[string]*stopwatch
}

// ServerDeps contains all dependencies required for the REST server
type ServerDeps struct {
	// Source drives stopwatches and the tick loop (default: real time)
	Source clock.Source
	// Registry exposes metrics on /metrics (default: the global Prometheus registry)
	Registry *prometheus.Registry
	// Metrics is attached to the tick loop (optional)
	Metrics *metrics.Collector
	// TickPeriod is the websocket snapshot period (default: 1s)
	TickPeriod time.Duration
}

func NewRESTServer(deps ServerDeps) *RESTServer {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Request ID middleware for correlation/tracing
	r.Use(func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = fmt.Sprintf("%d-%d", time.Now().UnixNano(), c.Request.ContentLength)
		}
		c.Set("request_id", reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	})

	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		reqID := c.GetString("request_id")
		logger.Errorf("[PANIC RECOVERY] request_id=%s path=%s method=%s error=%v",
			reqID, c.Request.URL.Path, c.Request.Method, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":      ErrMsgInternalError,
			"request_id": reqID,
		})
	}))

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if deps.Registry != nil {
		gatherer = deps.Registry
	}
	tick := deps.TickPeriod
	if tick <= 0 {
		tick = time.Second
	}

	src := clock.OrReal(deps.Source)
	s := &RESTServer{
		router:      r,
		source:      src,
		gatherer:    gatherer,
		hub:         NewWebSocketHub(),
		limiter:     NewRateLimiter(createRate, time.Minute, createBurst, src),
		tickPeriod:  tick,
		uptime:      clock.NewWithSource(src),
		stopwatches: make(map[string]*stopwatch),
	}
	s.ticker = executor.NewInterval(
		executor.WithName("ws-ticker"),
		executor.WithSource(src),
		executor.WithMetrics(deps.Metrics),
	)

	s.setupRoutes()
	s.ticker.Start(tick, s.broadcastTick)

	return s
}

func (s *RESTServer) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/ws", s.hub.HandleConnection)

	sw := api.Group("/stopwatches")
	sw.GET("", s.handleListStopwatches)
	sw.POST("", s.limiter.Middleware(), s.handleCreateStopwatch)
	sw.GET("/:id", s.handleGetStopwatch)
	sw.DELETE("/:id", s.handleDeleteStopwatch)
	sw.POST("/:id/pause", s.handleStopwatchAction(func(c *clock.PausableClock) { c.Pause() }))
	sw.POST("/:id/resume", s.handleStopwatchAction(func(c *clock.PausableClock) { c.Start() }))
	sw.POST("/:id/reset", s.handleStopwatchAction(func(c *clock.PausableClock) { c.Reset() }))
}

// Handler returns the HTTP handler serving every route.
func (s *RESTServer) Handler() http.Handler {
	return s.router
}

func (s *RESTServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"version":       config.Version,
		"uptime":        s.uptime.Elapsed().String(),
		"uptime_ms":     s.uptime.ElapsedIn(time.Millisecond),
		"ws_clients":    s.hub.ClientCount(),
		"tick_period":   s.tickPeriod.String(),
		"ticks_emitted": s.ticker.Invocations(),
	})
}

// broadcastTick pushes a snapshot of every stopwatch to websocket clients.
func (s *RESTServer) broadcastTick() error {
	if s.hub.ClientCount() == 0 {
		return nil
	}
	s.hub.Broadcast(gin.H{
		"type": "tick",
		"data": s.snapshotAll(),
	})
	return nil
}

// Start listens on addr and serves until Shutdown. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *RESTServer) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

// Shutdown stops the tick loop and the websocket hub, then gracefully shuts
// down the HTTP server.
func (s *RESTServer) Shutdown(ctx context.Context) error {
	s.ticker.HardStop()
	_ = s.limiter.Close()
	s.hub.Close()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
