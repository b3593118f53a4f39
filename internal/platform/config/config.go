// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the auth service.
type Config struct {

	// Service identity
	ProjectName string `env:"PROJECT_NAME" envDefault:"yomira-auth"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// HTTP server bind address
	Host string `env:"API_AUTH_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"API_AUTH_PORT" envDefault:"8081"`

	// Relational Database (PostgreSQL)
	PostgresHost     string `env:"POSTGRES_HOST,required"`
	PostgresPort     int    `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresDB       string `env:"POSTGRES_DB,required"`
	PostgresUser     string `env:"POSTGRES_USER,required"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./migrations"`

	// Key-Value Cache (Redis)
	RedisHost string `env:"REDIS_HOST,required"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`

	// Token signing
	AuthSecret       string        `env:"AUTH_SECRET,required"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL"   envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL"  envDefault:"720h"`
	RegisterTokenTTL time.Duration `env:"REGISTER_TOKEN_TTL" envDefault:"3h"`

	// OAuth providers
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	YandexClientID     string `env:"YANDEX_CLIENT_ID"`
	YandexClientSecret string `env:"YANDEX_CLIENT_SECRET"`

	// Sibling services
	ServiceToServiceSecret string `env:"SERVICE_TO_SERVICE_SECRET,required"`
	NotificationsHost      string `env:"API_NOTIFICATIONS_HOST,required"`
	NotificationsPort      int    `env:"API_NOTIFICATIONS_PORT" envDefault:"8082"`

	// DocsURL is where GET /docs redirects (external API reference).
	DocsURL string `env:"DOCS_URL"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// # Derived Addresses

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PostgresDSN assembles the pgx connection string from the POSTGRES_* parts.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		c.PostgresUser, c.PostgresPassword,
		net.JoinHostPort(c.PostgresHost, strconv.Itoa(c.PostgresPort)),
		c.PostgresDB,
	)
}

// RedisAddr returns the host:port of the Redis instance.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// NotificationsBaseURL returns the root URL of the notifications service.
func (c *Config) NotificationsBaseURL() string {
	return "http://" + net.JoinHostPort(c.NotificationsHost, strconv.Itoa(c.NotificationsPort))
}

// PublicBaseURL returns the externally reachable root URL of this service,
// used when embedding links (email confirmation) into outbound messages.
func (c *Config) PublicBaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
