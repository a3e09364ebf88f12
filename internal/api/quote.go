package api

import (
	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/rise-and-shine/quote3d/internal/quote"
	"github.com/rise-and-shine/quote3d/pkg/val"
)

// calculateQuote handles POST /quote: a stateless pricing calculation from
// the geometry report and the user's material/process/quantity selection.
func (a *API) calculateQuote(c *fiber.Ctx) error {
	var params quote.Params
	if err := c.BodyParser(&params); err != nil {
		return errx.New(
			"invalid quote request body",
			errx.WithCode(val.CodeValidationFailed),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"parse_error": err.Error()}),
		)
	}

	if err := val.ValidateSchema(params); err != nil {
		return errx.Wrap(err)
	}

	return c.JSON(quote.Calculate(params))
}

// quoteOptions handles GET /quote/options, listing the material and process
// ids the pricing formula knows about.
func (a *API) quoteOptions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"materials": quote.Materials(),
		"processes": quote.Processes(),
	})
}
