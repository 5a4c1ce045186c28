// Package api provides the HTTP API server and handlers for the prompt
// library. JSON routes go through huma for OpenAPI generation; the SSE
// stream and raw thumbnail bytes are plain chi routes.
package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/danieljanata/ComfyUI-Prompting-System/internal/http/response"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/ratelimit"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/service"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/sse"
	"github.com/danieljanata/ComfyUI-Prompting-System/internal/store"
)

// Services groups the service dependencies handlers reach for.
type Services struct {
	Prompt    *service.PromptService
	Saver     *service.SaverService
	Taxonomy  *service.TaxonomyService
	Import    *service.ImportService
	Thumbnail *service.ThumbnailService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store         store.Store
	services      *Services
	sseManager    *sse.Manager
	sseHandler    *sse.Handler
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
	importLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, sseManager *sse.Manager, logger *slog.Logger) *Server {
	s := &Server{
		store:      st,
		services:   services,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, logger),
		router:     chi.NewRouter(),
		logger:     logger,
		// Snapshot merges are heavyweight; one per second with a small
		// burst per client address.
		importLimiter: ratelimit.New(1, 3),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Prompt Library API", "1.0.0")
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerPromptRoutes()
	s.registerSaverRoutes()
	s.registerTaxonomyRoutes()
	s.registerImportRoutes()
	s.setupRawRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.importLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Panels are served from the ComfyUI origin, not ours.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Use(s.limitSnapshotTransfers)
}

// setupRawRoutes mounts routes that bypass the OpenAPI layer.
func (s *Server) setupRawRoutes() {
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	s.router.Get("/api/v1/prompts/{id}/thumbnail/image", s.handleThumbnailImage)
}

// limitSnapshotTransfers rate limits the import and export endpoints
// per client address.
func (s *Server) limitSnapshotTransfers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/import", "/api/v1/export":
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}
			if !s.importLimiter.Allow(key) {
				s.logger.Warn("snapshot transfer rate limited", "remote", key, "path", r.URL.Path)
				response.TooManyRequests(w, "too many snapshot transfers, slow down", s.logger)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// handleThumbnailImage streams the raw thumbnail bytes for a prompt.
func (s *Server) handleThumbnailImage(w http.ResponseWriter, r *http.Request) {
	promptID := chi.URLParam(r, "id")
	if promptID == "" {
		response.BadRequest(w, "prompt ID is required", s.logger)
		return
	}

	data, info, err := s.services.Thumbnail.Get(r.Context(), promptID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Header().Set("ETag", `"`+info.Hash+`"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("thumbnail write aborted", "prompt_id", promptID, "error", err)
	}
}
