package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/soundhub/internal/flagx"
)

var allowedFlags = []string{"-a", "-D", "-d", "-s", "-r", "-l", "-f", "-R", "-m", "-p", "-i", "-k", "-u", "-n"}

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-D string   database driver: pgx or sqlite
//	-d string   database DSN
//	-s string   access token / flow token secret
//	-r string   refresh token secret
//	-l string   log level
//	-f string   log format: json or text
//	-R string   Redis address for sign-in throttling
//	-m string   SMTP host
//	-p int      SMTP port
//	-i string   Spotify client id
//	-k string   Spotify client secret
//	-u string   Spotify redirect URL
//	-n int      sign-in attempts per window, 0 disables throttling
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.RefreshSecretKey, "r", config.RefreshSecretKey, "refresh token secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "p", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SpotifyClientID, "i", config.SpotifyClientID, "Spotify client id")
	fs.StringVar(&config.SpotifySecret, "k", config.SpotifySecret, "Spotify client secret")
	fs.StringVar(&config.SpotifyRedirectURL, "u", config.SpotifyRedirectURL, "Spotify redirect URL")
	fs.IntVar(&config.LoginRateLimit, "n", config.LoginRateLimit, "sign-in attempts per window")

	return fs.Parse(flagx.FilterArgs(args, allowedFlags))
}
