package api

import (
	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

// storageInfo handles GET /storage/info: backend kind, retention threshold
// and current object count.
func (a *API) storageInfo(c *fiber.Ctx) error {
	return c.JSON(newStorageInfoSchema(a.manager.Info()))
}

// sweep handles POST /storage/sweep, running an on-demand retention sweep.
// The configured retention applies unless an explicit older_than query
// parameter overrides it.
func (a *API) sweep(c *fiber.Ctx) error {
	olderThan := a.manager.Retention()

	if q := c.Query("older_than"); q != "" {
		d, err := cast.ToDurationE(q)
		if err != nil {
			return errx.New(
				"invalid older_than duration",
				errx.WithCode(codeInvalidDuration),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{"older_than": q}),
			)
		}
		olderThan = d
	}

	removed, err := a.manager.Sweep(c.UserContext(), olderThan)
	if err != nil {
		// Partial sweeps still report progress in logs; the request
		// itself fails so the operator notices.
		a.log.WithContext(c.UserContext()).With("removed", removed).Warnx(err)
		return errx.Wrap(err)
	}

	return c.JSON(sweepSchema{Removed: removed})
}

const codeInvalidDuration = "INVALID_DURATION"
