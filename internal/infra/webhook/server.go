// Package webhook runs a local capture server so callback payloads from an
// API under test can be received, listed, and saved to disk.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Scarage1/API-Watch/internal/infra/metrics"
)

// maxBodyBytes caps how much of a callback body gets captured.
const maxBodyBytes = 1 << 20

// recentLimit caps the in-memory capture ring.
const recentLimit = 100

// Config holds webhook server configuration.
type Config struct {
	Addr       string `yaml:"addr"`
	CaptureDir string `yaml:"capture_dir"`
}

// Capture is one received callback.
type Capture struct {
	ID         string            `json:"id"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Query      string            `json:"query,omitempty"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body,omitempty"`
	RemoteAddr string            `json:"remote_addr"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Server receives callbacks on /hooks/* and keeps the most recent ones in
// memory, optionally persisting each to the capture directory.
type Server struct {
	cfg    Config
	logger *slog.Logger
	engine *gin.Engine
	server *http.Server

	mu     sync.RWMutex
	recent []Capture
}

// NewServer creates a webhook capture server.
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(logger))
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		logger: logger,
		engine: engine,
	}

	engine.Any("/hooks/*path", s.handleCapture)
	engine.GET("/captures", s.handleList)
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler exposes the route tree.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":9091"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}

	s.logger.Info("webhook server listening", "addr", addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Recent returns the newest captures, newest first.
func (s *Server) Recent() []Capture {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Capture, len(s.recent))
	for i, c := range s.recent {
		out[len(s.recent)-1-i] = c
	}
	return out
}

func (s *Server) handleCapture(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k, vs := range c.Request.Header {
		headers[k] = strings.Join(vs, ", ")
	}

	capture := Capture{
		ID:         uuid.NewString(),
		Method:     c.Request.Method,
		Path:       c.Param("path"),
		Query:      c.Request.URL.RawQuery,
		Headers:    headers,
		Body:       string(body),
		RemoteAddr: c.ClientIP(),
		ReceivedAt: time.Now().UTC(),
	}

	s.remember(capture)
	metrics.WebhookEventsTotal.WithLabelValues(capture.Method).Inc()

	if s.cfg.CaptureDir != "" {
		if err := s.persist(capture); err != nil {
			s.logger.Error("failed to persist capture", "id", capture.ID, "error", err)
		}
	}

	s.logger.Info("captured webhook",
		"id", capture.ID,
		"method", capture.Method,
		"path", capture.Path,
		"bytes", len(capture.Body),
	)
	c.JSON(http.StatusOK, gin.H{"status": "received", "id": capture.ID})
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"captures": s.Recent()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) remember(capture Capture) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, capture)
	if len(s.recent) > recentLimit {
		s.recent = s.recent[len(s.recent)-recentLimit:]
	}
}

func (s *Server) persist(capture Capture) error {
	if err := os.MkdirAll(s.cfg.CaptureDir, 0o755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", capture.ReceivedAt.Format("20060102T150405"), capture.ID[:8])
	data, err := json.MarshalIndent(capture, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.cfg.CaptureDir, name), data, 0o644)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client", c.ClientIP(),
		}
		if status >= 400 {
			logger.Warn("webhook request", attrs...)
			return
		}
		logger.Debug("webhook request", attrs...)
	}
}
