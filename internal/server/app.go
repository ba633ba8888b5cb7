// Package server wires the soundhub auth service together and runs it:
// storage and migrations, token and password primitives, mail dispatch,
// identity providers, throttling and the HTTP surface, with graceful
// shutdown on termination signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/soundhub/internal/logging"
	"github.com/dmitrijs2005/soundhub/internal/server/auth"
	"github.com/dmitrijs2005/soundhub/internal/server/config"
	"github.com/dmitrijs2005/soundhub/internal/server/federation"
	"github.com/dmitrijs2005/soundhub/internal/server/httpapi"
	"github.com/dmitrijs2005/soundhub/internal/server/mailer"
	"github.com/dmitrijs2005/soundhub/internal/server/ratelimit"
	"github.com/dmitrijs2005/soundhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/soundhub/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(c.LogLevel, c.LogFormat, os.Stdout)

	if c.SecretKey == c.RefreshSecretKey {
		return nil, errors.New("secret key and refresh secret key must differ")
	}

	rm, err := repomanager.NewRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	passwords, err := auth.NewPasswords(c.PasswordHasher, c.PasswordIterations)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	dispatcher, err := mailer.NewDispatcher(newSender(c, logger), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	codec := auth.NewTokenCodec([]byte(c.SecretKey), []byte(c.RefreshSecretKey))
	providers := federation.NewRegistry(
		federation.NewSpotify(c.SpotifyClientID, c.SpotifySecret, c.SpotifyRedirectURL, c.FederationTimeout),
	)

	svc := services.NewAuthService(db, rm, services.Deps{
		Codec: codec,
		FlowTokens: auth.NewFlowTokenPolicy([]byte(c.SecretKey),
			auth.WithBucket(c.FlowTokenBucket),
			auth.WithMaxAgeBuckets(c.FlowTokenMaxAgeBuckets)),
		Passwords: passwords,
		Mailer:    dispatcher,
		Providers: providers,
		Logger:    logger,
	})

	limiter := ratelimit.New(ratelimit.Config{
		Limit:         c.LoginRateLimit,
		Window:        c.LoginRateWindow,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
	})

	backend := auth.NewBackend(codec, rm.Users(db))

	s, err := httpapi.NewHTTPServer(c.HTTPAddr, logger, svc, backend, limiter, providers)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, server: s}, nil
}

func newSender(c *config.Config, logger logging.Logger) mailer.Sender {
	if c.SMTPHost == "" {
		return mailer.NewLogSender(logger)
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		UseTLS:   c.SMTPUseTLS,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
