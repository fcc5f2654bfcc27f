package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"siteops/internal/config"
	"siteops/internal/handler"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.ServerConfig
	log        *zap.Logger
}

func NewRouter(h *handler.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/optimize", h.OptimizeImages)
		api.POST("/verify", h.VerifyDeployment)
		api.GET("/backups", h.ListBackups)
	}

	return router
}

func New(cfg *config.ServerConfig, h *handler.Handler, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Host + ":" + cfg.Port,
			Handler:           NewRouter(h),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// optimize and verify block on disk and network
			WriteTimeout:   5 * time.Minute,
			MaxHeaderBytes: 1 << 20,
		},
		cfg: cfg,
		log: log,
	}

	return server
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("address", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
