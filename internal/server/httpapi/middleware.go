package httpapi

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/dmitrijs2005/soundhub/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const (
	localsUser      = "user"
	localsRequestID = "requestid"

	msgNotAuthenticated = "Authentication credentials were not provided."
)

// accessLog writes one line per request. Handler errors are rendered here
// so the logged status is the one the client sees.
func (s *HTTPServer) accessLog(c *fiber.Ctx) error {
	start := time.Now()

	if chainErr := c.Next(); chainErr != nil {
		if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	rid, _ := c.Locals(localsRequestID).(string)
	s.logger.Info(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start).String(),
		"request_id", rid,
	)
	return nil
}

// authenticate resolves the Authorization header once per request. A
// rejected header fails the request; no header leaves it anonymous.
func (s *HTTPServer) authenticate(c *fiber.Ctx) error {
	user, err := s.authn.Authenticate(c.UserContext(), c.Get(common.AuthorizationHeaderName))
	if err != nil {
		return err
	}
	if user != nil {
		c.Locals(localsUser, user)
	}
	return c.Next()
}

func (s *HTTPServer) requireAuth(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return fiber.NewError(fiber.StatusForbidden, msgNotAuthenticated)
	}
	return c.Next()
}

// throttle limits attempts per client IP within scope. Limiter failures
// let the request through.
func (s *HTTPServer) throttle(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed, wait, err := s.limiter.Allow(c.UserContext(), scope+":"+c.IP())
		if err != nil {
			s.logger.Warn(c.UserContext(), "rate limiter unavailable", "scope", scope, "error", err)
			return c.Next()
		}
		if !allowed {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return fiber.NewError(fiber.StatusTooManyRequests,
				fmt.Sprintf("Request was throttled. Expected available in %d seconds.", secs))
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localsUser).(*models.User)
	return u
}
