package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shirakawalab/kikitori/internal/config"
	"github.com/shirakawalab/kikitori/internal/lifecycle"
	"github.com/shirakawalab/kikitori/internal/repository"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	engine     *gin.Engine
}

func NewServer(cfg *config.Config, repo repository.Repository, svc *lifecycle.Service) *Server {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(RequestID(), RequestLogger(), Recovery())

	h := &handlers{
		cfg:      cfg,
		repo:     repo,
		svc:      svc,
		validate: validator.New(),
	}
	registerRoutes(engine, cfg, h)

	return &Server{
		cfg:    cfg,
		engine: engine,
		httpServer: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: engine,
		},
	}
}

func registerRoutes(engine *gin.Engine, cfg *config.Config, h *handlers) {
	engine.GET("/healthz", h.Healthz)

	// The provider cannot hold a session; the webhook authenticates with
	// an optional shared secret instead.
	engine.POST("/api/stt-webhook", WebhookSecretAuth(cfg.STTWebhookSecret), h.STTWebhook)

	public := engine.Group("/public")
	{
		public.GET("/interviews/:link_id", h.GetPublicInterview)
		public.POST("/interviews/:link_id/questions/:question_id/answer", h.SubmitAnswer)
	}

	admin := engine.Group("/admin", AdminAPIKeyAuth(cfg.AdminAPIKey))
	{
		admin.POST("/interviews", h.CreateInterview)
		admin.GET("/interviews", h.ListInterviews)
		admin.GET("/interviews/:id", h.GetInterview)
		admin.DELETE("/interviews/:id", h.DeleteInterview)
		admin.POST("/answers/:id/transcribe", h.TranscribeAnswer)
	}

	if cfg.StorageBackend == config.StorageBackendLocal {
		engine.Static("/media", cfg.LocalStorageDir)
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		slog.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
