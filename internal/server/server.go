// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hive/internal/config"
	"hive/internal/server/handlers"
	"hive/internal/service/builderflow"
	socialService "hive/internal/service/social"
	spaceService "hive/internal/service/space"
	toolService "hive/internal/service/tool"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	eventsTopic string,
	natsConn *nats.Conn,
	spaceManager *spaceService.Manager,
	builderWorkflow *builderflow.Workflow,
	toolSvc *toolService.Service,
	socialAggregator *socialService.Aggregator,
	recommendations handlers.RecommendationReader,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	spaceHandler := handlers.NewSpaceHandler(spaceManager)
	builderHandler := handlers.NewBuilderHandler(builderWorkflow)
	toolHandler := handlers.NewToolHandler(toolSvc)
	socialHandler := handlers.NewSocialHandler(socialAggregator)
	recommendHandler := handlers.NewRecommendHandler(recommendations)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Spaces API
			r.Route("/spaces", func(r chi.Router) {
				r.Get("/", spaceHandler.ListSpaces)
				r.Post("/", spaceHandler.CreateSpace)
				r.Get("/{id}", spaceHandler.GetSpace)
				r.Post("/{id}/archive", spaceHandler.ArchiveSpace)

				// Builder access
				r.Route("/{id}/builder-requests", func(r chi.Router) {
					r.Get("/", builderHandler.ListRequests)
					r.Post("/", builderHandler.SubmitRequest)
				})

				// Space tools
				r.Route("/{id}/tools", func(r chi.Router) {
					r.Get("/", toolHandler.ListTools)
					r.Post("/", toolHandler.PlaceTool)
				})
			})

			// Builder request review
			r.Post("/builder-requests/{id}/review", builderHandler.ReviewRequest)

			// Tool interactions
			r.Post("/tools/{id}/interactions", toolHandler.RecordInteraction)

			// Social API
			r.Post("/activities", socialHandler.RecordActivity)
			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/metrics", socialHandler.GetMetrics)
				r.Post("/follow", socialHandler.Follow)
				r.Delete("/follow", socialHandler.Unfollow)
				r.Get("/recommendations", recommendHandler.GetRecommendations)
			})
		})
	})

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint for real-time space events
	router.Get("/ws/spaces/{id}", handlers.SpaceEventStreamHandler(natsConn, eventsTopic))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
