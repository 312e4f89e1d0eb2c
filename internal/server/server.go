// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// Analyzer runs analyses for the HTTP handlers
type Analyzer interface {
	AnalyzeURL(ctx context.Context, rawURL string) (*model.AnalysisReport, error)
	AnalyzeTranscript(ctx context.Context, videoID, transcript string) (*model.AnalysisReport, error)
}

// ReadinessChecker is implemented by analyzers that can probe their backends
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Server wraps the gin engine and its http.Server
type Server struct {
	cfg      model.ServerConfig
	engine   *gin.Engine
	analyzer Analyzer
	log      logrus.FieldLogger
}

// New builds the router. limiter paces requests per client IP and may be nil.
func New(cfg model.ServerConfig, analyzer Analyzer, limiter *worker.Limiter, log logrus.FieldLogger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	s := &Server{cfg: cfg, engine: engine, analyzer: analyzer, log: log}

	engine.GET("/healthz", s.health)
	engine.GET("/readyz", s.ready)

	analyze := engine.Group("/analyze")
	if limiter != nil {
		analyze.Use(rateLimit(limiter))
	}
	analyze.POST("", s.analyzeURL)
	analyze.POST("/transcript", s.analyzeTranscript)

	return s
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("claimcheck API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("Shutting down")
	return srv.Shutdown(shutCtx)
}
