package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"trend-pulse/src/broadcast"
	"trend-pulse/src/interfaces"
	"trend-pulse/src/logger"
	"trend-pulse/src/metrics"
	"trend-pulse/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type Server struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Hub      *broadcast.Hub
	Provider interfaces.IDashboardProvider
	Sources  interfaces.ISourceRegistry
	engine   *gin.Engine

	// WebSocket connections, owned by the hub loop
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	urgent     chan models.MStreamEvent
	updates    chan models.MDashboardSnapshot
	done       chan struct{}
	doneOnce   sync.Once

	countMutex  sync.RWMutex
	connections int
	lastUpdate  time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *models.MConfig, hub *broadcast.Hub, provider interfaces.IDashboardProvider, sources interfaces.ISourceRegistry, m *metrics.Metrics, log *logger.Logger) *Server {
	if !strings.EqualFold(cfg.LogLevel, "DEBUG") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:     cfg,
		Logger:     log,
		Metrics:    m,
		Hub:        hub,
		Provider:   provider,
		Sources:    sources,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		urgent:     make(chan models.MStreamEvent, 256),
		updates:    make(chan models.MDashboardSnapshot, 4),
		done:       make(chan struct{}),
	}

	hub.Urgent = s
	hub.OnDeliveryFailure = s.dropHandle

	s.engine.Use(gin.Recovery())
	if m != nil {
		s.engine.Use(m.MetricsMiddleware())
	}

	// CORS for local dashboards
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/dashboard", s.getDashboard)
	s.engine.GET("/api/sources", s.getSources)
	s.engine.POST("/api/alerts/:id/ack", s.acknowledgeAlert)

	if s.Metrics != nil {
		s.engine.GET("/metrics", s.Metrics.Handler())
	}

	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Run serves HTTP and WebSocket traffic until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.RunHub(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting server on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.Logger.Warning("HTTP shutdown: %v", err)
	}
	s.Logger.Info("Server stopped")
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	s.countMutex.RLock()
	connections := s.connections
	lastUpdate := s.lastUpdate
	s.countMutex.RUnlock()

	active := 0
	sources := s.Sources.Connections()
	for _, conn := range sources {
		if conn.Active {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   connections,
		"subscriptions": s.Hub.Count(),
		"sources":       len(sources),
		"activeSources": active,
		"lastUpdate":    lastUpdate,
		"timestamp":     time.Now().UTC(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tickSeconds":            s.Config.Ingestion.TickSeconds,
		"drainIntervalSeconds":   s.Config.Stream.DrainIntervalSeconds,
		"refreshIntervalSeconds": s.Config.Dashboard.RefreshIntervalSeconds,
		"retentionMinutes":       s.Config.Dashboard.RetentionMinutes,
		"minTrendConfidence":     s.Config.Dashboard.MinTrendConfidence,
		"trendThresholds":        s.Config.Analysis.TrendThresholds,
		"urgentPriorities":       s.Config.Broadcast.UrgentPriorities,
		"streamTypes": []models.EventKind{
			models.EventKindMetric,
			models.EventKindTrend,
			models.EventKindAlert,
			models.EventKindRecommendation,
		},
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.Provider.Snapshot())
}

// -----------------------------------------------------------------------------

func (s *Server) getSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": s.Sources.Connections()})
}

// -----------------------------------------------------------------------------

func (s *Server) acknowledgeAlert(c *gin.Context) {
	alertID := c.Param("id")
	ok := s.Provider.AcknowledgeAlert(alertID)

	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"alertId": alertID, "success": ok})
}
