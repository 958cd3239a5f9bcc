package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values.
type Config struct {
	Env                  string
	HTTPPort             string
	DatabasePath         string
	Secret               string
	OperatorPasswordHash string
	Timezone             string
	CatalogCSV           string
	MetricsEnabled       bool
	CORSAllowedOrigins   []string
	LogLevel             string
	LogEncoding          string
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DSN builds the modernc sqlite DSN. Foreign keys are switched on for every connection.
func (c Config) DSN() string {
	return "file:" + c.DatabasePath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// AuthEnabled reports whether mutating routes require an operator session.
func (c Config) AuthEnabled() bool {
	return c.OperatorPasswordHash != ""
}

// Load reads configuration from a .env file (when present) and environment variables with
// reasonable defaults. Invalid values are replaced by their defaults and reported in warnings.
func Load() (Config, []string) {
	var warnings []string
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		warnings = append(warnings, "unable to read .env file: "+err.Error())
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_env", "dev")
	v.SetDefault("http_port", "8080")
	v.SetDefault("database_path", "medivault.db")
	v.SetDefault("secret", "dev_secret")
	v.SetDefault("operator_password_hash", "")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("catalog_csv", "")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("log_level", "")
	v.SetDefault("log_encoding", "")

	cfg := Config{
		Env:                  v.GetString("app_env"),
		HTTPPort:             v.GetString("http_port"),
		DatabasePath:         v.GetString("database_path"),
		Secret:               v.GetString("secret"),
		OperatorPasswordHash: v.GetString("operator_password_hash"),
		Timezone:             v.GetString("timezone"),
		CatalogCSV:           v.GetString("catalog_csv"),
		MetricsEnabled:       v.GetBool("metrics_enabled"),
		CORSAllowedOrigins:   splitList(v.GetString("cors_allowed_origins")),
		LogLevel:             v.GetString("log_level"),
		LogEncoding:          v.GetString("log_encoding"),
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		warnings = append(warnings, "invalid HTTP_PORT value "+strconv.Quote(cfg.HTTPPort)+", defaulting to 8080")
		cfg.HTTPPort = "8080"
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		warnings = append(warnings, "unknown TIMEZONE "+strconv.Quote(cfg.Timezone)+", defaulting to UTC")
		cfg.Timezone = "UTC"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "medivault.db"
	}

	return cfg, warnings
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
