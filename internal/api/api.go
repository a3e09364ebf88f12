// Package api wires the HTTP handlers for uploads, downloads, session
// tracking, storage administration and quoting.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/quote3d/internal/geometry"
	"github.com/rise-and-shine/quote3d/internal/session"
	"github.com/rise-and-shine/quote3d/internal/storage"
	"github.com/rise-and-shine/quote3d/pkg/logger"
)

// API holds the handler dependencies. All of them are injected at startup;
// handlers keep no state of their own.
type API struct {
	log       logger.Logger
	registry  *session.Registry
	manager   *storage.Manager
	analyzer  geometry.Analyzer
	converter geometry.Converter
}

// New creates the API. analyzer and converter may be nil when geometry
// analysis is disabled; uploads then return a null geometry report.
func New(
	log logger.Logger,
	registry *session.Registry,
	manager *storage.Manager,
	analyzer geometry.Analyzer,
	converter geometry.Converter,
) *API {
	return &API{
		log:       log.Named("api"),
		registry:  registry,
		manager:   manager,
		analyzer:  analyzer,
		converter: converter,
	}
}

// Register mounts all routes on the given router.
func (a *API) Register(r fiber.Router) {
	r.Get("/", a.root)
	r.Get("/health", a.health)

	r.Post("/upload", a.upload)
	r.Get("/download/:handle", a.download)
	r.Delete("/files/:handle", a.deleteFile)

	r.Get("/sessions/:id", a.sessionInfo)
	r.Delete("/sessions/:id", a.clearSession)
	r.Delete("/sessions/:id/files/:filename", a.removeSessionFile)

	r.Get("/storage/info", a.storageInfo)
	r.Post("/storage/sweep", a.sweep)

	r.Post("/quote", a.calculateQuote)
	r.Get("/quote/options", a.quoteOptions)
}

func (a *API) root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "quote3d API is running"})
}

func (a *API) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}
