package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/vigenere-go/internal/auth"
	"github.com/vigenere-go/internal/config"
	"github.com/vigenere-go/internal/dao"
	"github.com/vigenere-go/internal/encryption"
	"github.com/vigenere-go/internal/handler"
	"github.com/vigenere-go/internal/storage"
)

// Server is the HTTP front end of the cipher
type Server struct {
	cfg        *config.Config
	store      *storage.Store
	router     *gin.Engine
	httpServer *http.Server
	runDAO     *dao.RunDAO
	jwtAuth    *auth.JWTAuth
}

// New creates a new server instance. The journal store is opened only when
// the journal is enabled.
func New(cfg *config.Config) (*Server, error) {
	charset, err := cfg.ResolveCharset()
	if err != nil {
		return nil, err
	}
	alphabet, err := encryption.NewAlphabet(charset)
	if err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg}

	if cfg.Journal.Enable {
		store, err := storage.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
		s.store = store
		s.runDAO = dao.NewRunDAO(store)
	}

	if cfg.IsAuthEnabled() {
		s.jwtAuth = auth.NewJWTAuth(cfg.JWTSecret, time.Duration(cfg.JWTExpire)*time.Hour)
	}

	s.setupRoutes(handler.NewAPIHandler(alphabet, s.runDAO))
	return s, nil
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(apiHandler *handler.APIHandler) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(LoggerMiddleware())
	if s.cfg.Server.Gzip {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	r.GET("/health", HealthHandler)
	r.GET("/ready", ReadyHandler)

	api := r.Group("/api")
	if s.jwtAuth != nil {
		api.Use(AuthMiddleware(s.jwtAuth))
	}
	api.POST("/encrypt", apiHandler.Encrypt)
	api.POST("/decrypt", apiHandler.Decrypt)
	api.GET("/runs", apiHandler.ListRuns)
	api.GET("/runs/:id/failures", apiHandler.RunFailures)

	s.router = r
}

// Start serves until Shutdown is called or the listener fails
func (s *Server) Start() error {
	addr := s.cfg.GetHTTPAddr()

	var httpHandler http.Handler = s.router

	// Enable h2c (HTTP/2 cleartext) if configured
	if s.cfg.Server.EnableH2C {
		h2s := &http2.Server{
			MaxConcurrentStreams: 250,
			IdleTimeout:          120 * time.Second,
		}
		httpHandler = h2c.NewHandler(s.router, h2s)
		log.Info().Msg("HTTP/2 cleartext (h2c) enabled")
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Bool("auth", s.jwtAuth != nil).
		Bool("journal", s.runDAO != nil).
		Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server...")

	var lastErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			lastErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
