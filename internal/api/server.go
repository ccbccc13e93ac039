package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vehicle-counter-go/internal/api/handlers"
	"vehicle-counter-go/internal/api/middleware"
	"vehicle-counter-go/internal/config"
	"vehicle-counter-go/internal/services/pipeline"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler  *handlers.HealthHandler
	counterHandler *handlers.CounterHandler
	previewHandler *handlers.PreviewHandler
}

func NewServer(cfg *config.Config, p *pipeline.Service) *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		config:         cfg,
		router:         gin.New(),
		healthHandler:  handlers.NewHealthHandler(cfg.WorkerID, cfg.Version),
		counterHandler: handlers.NewCounterHandler(p),
		previewHandler: handlers.NewPreviewHandler(p),
	}
}

func (s *Server) Setup() {
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestID())
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting status API")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop() error {
	log.Info().Msg("Stopping status API")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
