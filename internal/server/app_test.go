package server

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/soundhub/internal/logging"
	"github.com/dmitrijs2005/soundhub/internal/server/config"
	"github.com/dmitrijs2005/soundhub/internal/server/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:" + t.Name() + "?mode=memory&cache=shared"
	c.PasswordIterations = 1000
	c.LogLevel = "error"
	return c
}

func TestNewApp_WiresEverything(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	assert.NotNil(t, app.server)
	assert.NotNil(t, app.logger)

	var n int
	require.NoError(t, app.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Zero(t, n)
}

func TestNewApp_RejectsSharedSecret(t *testing.T) {
	c := testConfig(t)
	c.RefreshSecretKey = c.SecretKey

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "must differ")
}

func TestNewApp_UnsupportedDriver(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "oracle"

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "db init error")
}

func TestNewApp_UnknownHasher(t *testing.T) {
	c := testConfig(t)
	c.PasswordHasher = "md5"

	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestNewSender(t *testing.T) {
	c := testConfig(t)

	assert.IsType(t, &mailer.LogSender{}, newSender(c, logging.Nop()))
	c.SMTPHost = "smtp.example.com"
	assert.IsType(t, &mailer.SMTPSender{}, newSender(c, logging.Nop()))
}
