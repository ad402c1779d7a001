// Package api wires the HTTP surface for lispiritod: one gin engine
// exposing token issuance, expression evaluation, health, metrics and a
// websocket feed, grounded on the teacher's cmd/ares/main.go (gin engine,
// gin-contrib/cors, route registration) and internal/api/routes/v1.go
// (versioned route grouping). Each named session gets its own
// internal/session.Session so that defines in one caller's evaluations
// never leak into another's.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lispirito/internal/auth"
	"lispirito/internal/cache"
	"lispirito/internal/config"
	"lispirito/internal/database"
	"lispirito/internal/heap"
	"lispirito/internal/logger"
	"lispirito/internal/middleware"
	"lispirito/internal/observability"
	"lispirito/internal/session"
	"lispirito/internal/value"
	"lispirito/internal/websocket"
)

// Server owns every named session plus the ambient/domain collaborators
// each request touches.
type Server struct {
	cfg    config.Settings
	log    *logger.Logger
	db     *gorm.DB
	cache  *cache.Cache
	issuer *auth.Issuer
	hub    *websocket.Hub

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewServer builds a Server from config, opening the database and cache
// connections it names and constructing its own hub and JWT issuer.
func NewServer(cfg config.Settings, log *logger.Logger) *Server {
	db, err := database.Open(cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		log.Error("database open failed, continuing without persistence", err)
		db = nil
	}

	return &Server{
		cfg:      cfg,
		log:      log,
		db:       db,
		cache:    cache.Connect(cfg.RedisAddr, cfg.RedisTTL),
		issuer:   auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer),
		hub:      websocket.NewHub(log),
		sessions: make(map[string]*session.Session),
	}
}

// Engine builds the gin.Engine with cors, the versioned route group, and
// every handler wired to s.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/v1/healthz", s.handleHealthz)
	r.POST("/v1/token", s.handleToken)

	authorized := r.Group("/v1")
	authorized.Use(middleware.Auth(s.issuer), middleware.RateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))
	authorized.POST("/eval", s.handleEval)
	authorized.GET("/metrics", s.handleMetrics)
	authorized.GET("/ws", s.handleWebsocket)

	return r
}

func (s *Server) sessionFor(name string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[name]
	if !ok {
		profile := value.ProfileHosted
		if s.cfg.RealProfile == "fixed" {
			profile = value.ProfileConstrained
		}
		sess = session.New(profile, s.cfg.VMConfig(), noopWriter{}, noopReader{})
		s.sessions[name] = sess
	}
	return sess
}

type tokenRequest struct {
	Session string `json:"session"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// handleToken issues a fresh access/refresh token pair for a session
// name. There is no password: any caller may mint a session, matching
// the spec's single-process, trust-the-caller deployment model.
func (s *Server) handleToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Session == "" {
		req.Session = uuid.NewString()
	}

	access, err := s.issuer.IssueAccess(req.Session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	refresh, err := s.issuer.IssueRefresh(req.Session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh})
}

type evalRequest struct {
	Source string `json:"source"`
}

type evalResponse struct {
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	TraceID string `json:"trace_id"`
	Cached  bool   `json:"cached"`
}

// handleEval evaluates one expression against the caller's session,
// checking the redis cache first, then recording the outcome to the
// database and broadcasting it over the websocket hub.
func (s *Server) handleEval(c *gin.Context) {
	sessionName := c.GetString("session")

	var req evalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source is required"})
		return
	}

	ctx, span := observability.StartEval(c.Request.Context(), sessionName, req.Source)

	if cached, ok := s.cache.Get(ctx, sessionName, req.Source); ok {
		span.End(nil, 0, 0)
		c.JSON(http.StatusOK, evalResponse{Result: cached, TraceID: span.TraceID, Cached: true})
		return
	}

	sess := s.sessionFor(sessionName)
	start := time.Now()
	result, err := sess.Eval(req.Source)
	frameDepth, argsDepth := sess.VM.Depth(), sess.VM.ArgsDepth()
	elapsed := time.Since(start)

	resp := evalResponse{TraceID: span.TraceID}
	rec := database.EvalRecord{Session: sessionName, Source: req.Source, DurationMS: elapsed.Milliseconds()}

	if err != nil {
		resp.Error = err.Error()
		rec.Error = err.Error()
		span.End(err, frameDepth, argsDepth)
		s.hub.Broadcast(websocket.Message{Session: sessionName, Type: "error", Text: resp.Error, Timestamp: time.Now()})
	} else {
		resp.Result = sess.Print(result)
		rec.Result = resp.Result
		span.End(nil, frameDepth, argsDepth)
		s.cache.Set(ctx, sessionName, req.Source, resp.Result)
		s.hub.Broadcast(websocket.Message{Session: sessionName, Type: "result", Text: resp.Result, Timestamp: time.Now()})
	}

	database.RecordEval(s.db, rec)

	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleMetrics reports each live session's heap-pool occupancy, the
// constrained build's free-slot figure surfaced over HTTP instead of the
// REPL's stdout line, alongside the host process's own memory figures
// (Go heap plus, best-effort, system free memory) from internal/heap's
// gopsutil-backed sampler.
func (s *Server) handleMetrics(c *gin.Context) {
	sessionName := c.GetString("session")
	sess := s.sessionFor(sessionName)
	values, boxes := sess.PoolStats()
	platform := heap.ReadPlatformStats()
	c.JSON(http.StatusOK, gin.H{
		"values":   values,
		"boxes":    boxes,
		"platform": platform,
	})
}

func (s *Server) handleWebsocket(c *gin.Context) {
	if err := s.hub.Serve(c.Writer, c.Request); err != nil {
		s.log.Error("websocket upgrade failed", err)
	}
}

// Shutdown closes every resource the server opened.
func (s *Server) Shutdown(ctx context.Context) {
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

type noopReader struct{}

func (noopReader) Read(p []byte) (int, error) { return 0, context.Canceled }
