package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/gofiber/fiber/v2"
)

const (
	msgJSONParse     = "JSON parse error"
	msgInternal      = "internal error"
	msgSomethingWent = "Something went wrong. Please try again"
)

func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	var (
		authErr  *common.AuthenticationFailedError
		validErr *common.ValidationError
		fiberErr *fiber.Error
	)

	switch {
	case errors.As(err, &authErr):
		s.logger.Info(c.UserContext(), "authentication failed", "path", c.Path(), "detail", authErr.Detail)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": authErr.Detail})
	case errors.As(err, &validErr):
		return c.Status(fiber.StatusBadRequest).JSON(validErr.Fields)
	case errors.As(err, &fiberErr):
		return c.Status(fiberErr.Code).JSON(fiber.Map{"detail": fiberErr.Message})
	default:
		s.logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": msgInternal})
	}
}

// bind decodes a JSON body into v. An empty body leaves v zeroed.
func bind(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	if err := c.App().Config().JSONDecoder(body, v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgJSONParse)
	}
	return nil
}
