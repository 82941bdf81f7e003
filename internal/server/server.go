// Package server exposes the checks over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/judolscan/internal/extract"
	"github.com/ppiankov/judolscan/internal/metrics"
	"github.com/ppiankov/judolscan/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Checker is the pipeline surface the API serves
type Checker interface {
	CheckText(ctx context.Context, text string) (*model.TextResult, error)
	CheckImage(ctx context.Context, data []byte) (*model.ImageResult, error)
	CheckVideo(ctx context.Context, video io.Reader, name string) (*model.VideoResult, error)
	CheckURL(ctx context.Context, rawURL string) (*model.URLResult, error)
	CheckMedia(ctx context.Context, rawURL string) (*model.MediaResult, error)
	FetchWebpage(ctx context.Context, rawURL string) (extract.PageText, error)
}

// Options configures the API
type Options struct {
	Profile        string
	MaxUploadBytes int64
	Metrics        *metrics.Collector
	Gatherer       prometheus.Gatherer // nil disables /metrics
}

// Server is the HTTP API
type Server struct {
	checker Checker
	opts    Options
	engine  *gin.Engine
}

// New creates the API and registers its routes
func New(checker Checker, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}

	s := &Server{checker: checker, opts: opts, engine: gin.New()}
	s.engine.Use(gin.Recovery(), s.requestLog(), cors())
	s.engine.MaxMultipartMemory = 32 << 20

	s.engine.GET("/", s.index)
	api := s.engine.Group("/api")
	{
		api.POST("/detect-text", s.detectText)
		api.POST("/detect-image", s.detectImage)
		api.POST("/detect-video", s.detectVideo)
		api.POST("/detect-url", s.detectURL)
		api.POST("/detect-web", s.detectURL)
		api.POST("/detect-youtube", s.detectMedia)
		api.GET("/fetch-webpage", s.fetchWebpage)
	}
	if opts.Gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("profile", s.opts.Profile).Msg("API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.opts.Metrics.RecordHTTPRequest(route, status)
		log.Debug().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// cors allows any origin; the API is meant to sit behind a browser front end
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
