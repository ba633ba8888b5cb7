package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/soundhub/internal/flagx"
	"github.com/dmitrijs2005/soundhub/internal/timex"
)

// FileConfig mirrors Config for file decoding. Durations use timex.Duration
// so both "24h" strings and integer nanoseconds are accepted.
type FileConfig struct {
	HTTPAddr               string         `json:"http_addr" toml:"http_addr"`
	DatabaseDriver         string         `json:"database_driver" toml:"database_driver"`
	DatabaseDSN            string         `json:"database_dsn" toml:"database_dsn"`
	SecretKey              string         `json:"secret_key" toml:"secret_key"`
	RefreshSecretKey       string         `json:"refresh_secret_key" toml:"refresh_secret_key"`
	FlowTokenBucket        timex.Duration `json:"flow_token_bucket" toml:"flow_token_bucket"`
	FlowTokenMaxAgeBuckets int            `json:"flow_token_max_age_buckets" toml:"flow_token_max_age_buckets"`
	PasswordHasher         string         `json:"password_hasher" toml:"password_hasher"`
	PasswordIterations     int            `json:"password_iterations" toml:"password_iterations"`
	SMTPHost               string         `json:"smtp_host" toml:"smtp_host"`
	SMTPPort               int            `json:"smtp_port" toml:"smtp_port"`
	SMTPUser               string         `json:"smtp_user" toml:"smtp_user"`
	SMTPPassword           string         `json:"smtp_password" toml:"smtp_password"`
	SMTPFrom               string         `json:"smtp_from" toml:"smtp_from"`
	SMTPUseTLS             bool           `json:"smtp_use_tls" toml:"smtp_use_tls"`
	SpotifyClientID        string         `json:"spotify_client_id" toml:"spotify_client_id"`
	SpotifySecret          string         `json:"spotify_secret" toml:"spotify_secret"`
	SpotifyRedirectURL     string         `json:"spotify_redirect_url" toml:"spotify_redirect_url"`
	FederationTimeout      timex.Duration `json:"federation_timeout" toml:"federation_timeout"`
	RedisAddr              string         `json:"redis_addr" toml:"redis_addr"`
	RedisPassword          string         `json:"redis_password" toml:"redis_password"`
	LoginRateLimit         int            `json:"login_rate_limit" toml:"login_rate_limit"`
	LoginRateWindow        timex.Duration `json:"login_rate_window" toml:"login_rate_window"`
	LogLevel               string         `json:"log_level" toml:"log_level"`
	LogFormat              string         `json:"log_format" toml:"log_format"`
}

// parseFile overlays values from the file named by -c/-config. Keys absent
// from the file keep their current values. The format is picked by
// extension: ".toml" is TOML, anything else is JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := toFileConfig(config)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, fc)
	} else {
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func toFileConfig(c *Config) *FileConfig {
	return &FileConfig{
		HTTPAddr:               c.HTTPAddr,
		DatabaseDriver:         c.DatabaseDriver,
		DatabaseDSN:            c.DatabaseDSN,
		SecretKey:              c.SecretKey,
		RefreshSecretKey:       c.RefreshSecretKey,
		FlowTokenBucket:        timex.Duration{Duration: c.FlowTokenBucket},
		FlowTokenMaxAgeBuckets: c.FlowTokenMaxAgeBuckets,
		PasswordHasher:         c.PasswordHasher,
		PasswordIterations:     c.PasswordIterations,
		SMTPHost:               c.SMTPHost,
		SMTPPort:               c.SMTPPort,
		SMTPUser:               c.SMTPUser,
		SMTPPassword:           c.SMTPPassword,
		SMTPFrom:               c.SMTPFrom,
		SMTPUseTLS:             c.SMTPUseTLS,
		SpotifyClientID:        c.SpotifyClientID,
		SpotifySecret:          c.SpotifySecret,
		SpotifyRedirectURL:     c.SpotifyRedirectURL,
		FederationTimeout:      timex.Duration{Duration: c.FederationTimeout},
		RedisAddr:              c.RedisAddr,
		RedisPassword:          c.RedisPassword,
		LoginRateLimit:         c.LoginRateLimit,
		LoginRateWindow:        timex.Duration{Duration: c.LoginRateWindow},
		LogLevel:               c.LogLevel,
		LogFormat:              c.LogFormat,
	}
}

func (fc *FileConfig) apply(c *Config) {
	c.HTTPAddr = fc.HTTPAddr
	c.DatabaseDriver = fc.DatabaseDriver
	c.DatabaseDSN = fc.DatabaseDSN
	c.SecretKey = fc.SecretKey
	c.RefreshSecretKey = fc.RefreshSecretKey
	c.FlowTokenBucket = fc.FlowTokenBucket.Duration
	c.FlowTokenMaxAgeBuckets = fc.FlowTokenMaxAgeBuckets
	c.PasswordHasher = fc.PasswordHasher
	c.PasswordIterations = fc.PasswordIterations
	c.SMTPHost = fc.SMTPHost
	c.SMTPPort = fc.SMTPPort
	c.SMTPUser = fc.SMTPUser
	c.SMTPPassword = fc.SMTPPassword
	c.SMTPFrom = fc.SMTPFrom
	c.SMTPUseTLS = fc.SMTPUseTLS
	c.SpotifyClientID = fc.SpotifyClientID
	c.SpotifySecret = fc.SpotifySecret
	c.SpotifyRedirectURL = fc.SpotifyRedirectURL
	c.FederationTimeout = fc.FederationTimeout.Duration
	c.RedisAddr = fc.RedisAddr
	c.RedisPassword = fc.RedisPassword
	c.LoginRateLimit = fc.LoginRateLimit
	c.LoginRateWindow = fc.LoginRateWindow.Duration
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
}
