package api

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// sessionInfo handles GET /sessions/:id. Unknown session ids report a file
// count of 0; the endpoint never fails.
func (a *API) sessionInfo(c *fiber.Ctx) error {
	id := c.Params("id")

	return c.JSON(sessionSchema{
		SessionID: id,
		FileCount: a.registry.FileCount(id),
	})
}

// clearSession handles DELETE /sessions/:id. Only the tracking entries are
// removed; the underlying stored bytes are reclaimed by the retention
// sweep, not by clearing the session. Idempotent.
func (a *API) clearSession(c *fiber.Ctx) error {
	id := c.Params("id")
	a.registry.Clear(id)

	return c.JSON(sessionSchema{
		SessionID: id,
		FileCount: 0,
	})
}

// removeSessionFile handles DELETE /sessions/:id/files/:filename, used when
// a cart item is removed. No-op for absent entries.
func (a *API) removeSessionFile(c *fiber.Ctx) error {
	id := c.Params("id")

	filename := c.Params("filename")
	if unescaped, err := url.PathUnescape(filename); err == nil {
		filename = unescaped
	}

	removed := a.registry.RemoveEntry(id, filename)

	return c.JSON(removeEntrySchema{
		SessionID: id,
		Filename:  filename,
		Removed:   removed,
		FileCount: a.registry.FileCount(id),
	})
}
