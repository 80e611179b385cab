package server

import (
	"fmt"
	"net/http"
	"time"

	"robohub/internal/catalog"
	"robohub/internal/config"
	custommiddleware "robohub/internal/middleware"
	"robohub/internal/orders"
	"robohub/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   *Deps
}

// NewRouter wires every gateway view and action against deps.
func NewRouter(cfg *config.Config, logger *zap.Logger, deps *Deps) http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.CORSOrigins, cfg.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, deps.Health(r.Context()))
	})

	requireSession := custommiddleware.RequireSession(deps.Session, logger)

	transport.NewAuthHandler(deps.Session, logger).RegisterRoutes(router)
	transport.NewCatalogHandler(catalog.NewReader(deps.API, logger), deps.Session, logger).RegisterRoutes(router)
	transport.NewCartHandler(deps.API, deps.Rates, deps.Session, logger).RegisterRoutes(router, requireSession)
	transport.NewCheckoutHandler(deps.API, deps.Rates, deps.Session, logger).RegisterRoutes(router, requireSession)
	transport.NewProfileHandler(orders.NewReader(deps.API, logger), deps.Session, logger).RegisterRoutes(router, requireSession)

	return router
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps *Deps) *Server {
	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.deps.Close(); err != nil {
		s.logger.Error("Failed to close session store", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
