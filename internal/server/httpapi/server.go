// Package httpapi exposes the auth flows over HTTP with fiber.
package httpapi

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/logging"
	"github.com/dmitrijs2005/soundhub/internal/server/federation"
	"github.com/dmitrijs2005/soundhub/internal/server/models"
	"github.com/dmitrijs2005/soundhub/internal/server/ratelimit"
	"github.com/dmitrijs2005/soundhub/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/django/v3"
	"github.com/google/uuid"
)

const shutdownTimeout = 5 * time.Second

//go:embed views/*.html
var views embed.FS

// Authenticator resolves an Authorization header value to a user. It
// returns nil, nil for anonymous requests.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.User, error)
}

type HTTPServer struct {
	address   string
	app       *fiber.App
	logger    logging.Logger
	auth      *services.AuthService
	authn     Authenticator
	limiter   ratelimit.Limiter
	providers *federation.Registry
}

func NewHTTPServer(a string, l logging.Logger, svc *services.AuthService, authn Authenticator,
	limiter ratelimit.Limiter, providers *federation.Registry) (*HTTPServer, error) {

	sub, err := fs.Sub(views, "views")
	if err != nil {
		return nil, err
	}
	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	s := &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		auth:      svc,
		authn:     authn,
		limiter:   limiter,
		providers: providers,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "soundhub",
		Views:                 engine,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(s.accessLog)
	s.routes()

	return s, nil
}

func (s *HTTPServer) routes() {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api", s.authenticate)

	a := api.Group("/auth")
	a.Post("/sign_up/", s.signUp)
	a.Get("/activate/:uidb64/:token", s.activate)
	a.Post("/sign_in/", s.throttle("sign_in"), s.signIn)
	a.Post("/sign_in/refresh/", s.refresh)
	a.Put("/change_password/", s.requireAuth, s.changePassword)
	a.Patch("/change_password/", s.requireAuth, s.changePassword)
	a.Post("/reset_password_request/", s.throttle("reset_password"), s.resetPasswordRequest)
	a.Put("/reset_password_confirm/:uidb64/:token/", s.resetPasswordConfirm)
	a.Patch("/reset_password_confirm/:uidb64/:token/", s.resetPasswordConfirm)
	a.Get("/spotify_login/", s.federatedLogin("spotify"))
	a.Get("/spotify_callback/", s.federatedCallback("spotify"))

	api.Get("/users/me/", s.requireAuth, s.me)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	// starts accepting incoming connections
	return s.app.Listener(listen)
}
