package httpapi

import (
	"errors"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/dmitrijs2005/soundhub/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type userData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type signUpResponse struct {
	UserData  userData `json:"user_data"`
	SendEmail bool     `json:"send_email"`
}

type sessionResponse struct {
	UserID       string `json:"user_id"`
	UserEmail    string `json:"user_email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type resetRequestResponse struct {
	Email     string `json:"email"`
	SendEmail bool   `json:"send_email"`
}

type meResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
}

func (s *HTTPServer) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *HTTPServer) signUp(c *fiber.Ctx) error {
	var in services.SignUpInput
	if err := bind(c, &in); err != nil {
		return err
	}

	res, err := s.auth.SignUp(c.UserContext(), in, linkBase(c))
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if !res.SendEmail {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(signUpResponse{
		UserData:  userData{ID: res.User.ID, Email: res.User.Email},
		SendEmail: res.SendEmail,
	})
}

func (s *HTTPServer) activate(c *fiber.Ctx) error {
	ok := s.auth.Activate(c.UserContext(), c.Params("uidb64"), c.Params("token"))
	return c.Status(okStatus(ok)).JSON(successResponse{Success: ok})
}

func (s *HTTPServer) signIn(c *fiber.Ctx) error {
	var in services.SignInInput
	if err := bind(c, &in); err != nil {
		return err
	}

	sess, err := s.auth.SignIn(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(toSessionResponse(sess))
}

func (s *HTTPServer) refresh(c *fiber.Ctx) error {
	var in services.RefreshInput
	if err := bind(c, &in); err != nil {
		return err
	}

	access, err := s.auth.Refresh(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"access_token": access})
}

func (s *HTTPServer) changePassword(c *fiber.Ctx) error {
	var in services.ChangePasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}

	if err := s.auth.ChangePassword(c.UserContext(), currentUser(c), in); err != nil {
		return err
	}
	return c.JSON(successResponse{Success: true})
}

func (s *HTTPServer) resetPasswordRequest(c *fiber.Ctx) error {
	var in services.ResetRequestInput
	if err := bind(c, &in); err != nil {
		return err
	}

	res, err := s.auth.RequestPasswordReset(c.UserContext(), in, linkBase(c))
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if !res.SendEmail {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(resetRequestResponse{Email: res.Email, SendEmail: res.SendEmail})
}

func (s *HTTPServer) resetPasswordConfirm(c *fiber.Ctx) error {
	var in services.ResetConfirmInput
	if err := bind(c, &in); err != nil {
		return err
	}

	ok, err := s.auth.ConfirmPasswordReset(c.UserContext(), c.Params("uidb64"), c.Params("token"), in)
	if err != nil {
		return err
	}
	return c.Status(okStatus(ok)).JSON(successResponse{Success: ok})
}

// federatedLogin renders a page linking to the provider's consent screen.
func (s *HTTPServer) federatedLogin(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := s.providers.Get(name)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.Render(name+"_login", fiber.Map{
			"provider": p.DisplayName(),
			"auth_url": p.AuthCodeURL(""),
		})
	}
}

func (s *HTTPServer) federatedCallback(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Query("code")
		if code == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgSomethingWent})
		}

		sess, err := s.auth.FederatedSignIn(c.UserContext(), name, code)
		if err != nil {
			if errors.Is(err, common.ErrUpstream) {
				s.logger.Warn(c.UserContext(), "identity provider failed", "provider", name, "error", err)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgSomethingWent})
			}
			return err
		}
		return c.JSON(toSessionResponse(sess))
	}
}

func (s *HTTPServer) me(c *fiber.Ctx) error {
	u := currentUser(c)
	return c.JSON(meResponse{ID: u.ID, Email: u.Email, Username: u.Username, IsActive: u.IsActive})
}

func linkBase(c *fiber.Ctx) services.LinkBase {
	return services.LinkBase{Protocol: c.Protocol(), Domain: c.Hostname()}
}

func toSessionResponse(s *services.Session) sessionResponse {
	return sessionResponse{
		UserID:       s.UserID,
		UserEmail:    s.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
}

func okStatus(ok bool) int {
	if ok {
		return fiber.StatusOK
	}
	return fiber.StatusBadRequest
}
