// Package server exposes the pipeline over HTTP: importing videos,
// inspecting their state, cancelling work and fetching rendered clips.
package server

import (
	"github.com/gofiber/fiber/v2"

	"clipline/internal/config"
	"clipline/internal/logging"
	"clipline/internal/store"
)

// Canceller aborts in-flight processing for one video.
type Canceller interface {
	Cancel(videoID string) bool
}

// Server is the Fiber application wrapper.
type Server struct {
	app       *fiber.App
	st        *store.Store
	cfg       *config.Config
	log       *logging.Logger
	canceller Canceller
}

// New builds the HTTP server and its routes. canceller may be nil when
// no pipeline manager is running.
func New(st *store.Store, cfg *config.Config, logger *logging.Logger, canceller Canceller) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "clipline",
			DisableStartupMessage: true,
		}),
		st:        st,
		cfg:       cfg,
		log:       logging.WithComponent(logger, "server"),
		canceller: canceller,
	}

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Post("/videos", s.importVideo)
	api.Get("/videos/:id", s.getVideo)
	api.Post("/videos/:id/process", s.processVideo)
	api.Post("/videos/:id/cancel", s.cancelVideo)
	api.Get("/videos/:id/clips", s.listClips)
	api.Get("/videos/:id/clips/:filename", s.getClipFile)

	return s
}

// Listen serves on the configured bind address until Shutdown.
func (s *Server) Listen() error {
	s.log.Infow("http server listening", "bind", s.cfg.Paths.APIBind)
	return s.app.Listen(s.cfg.Paths.APIBind)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
