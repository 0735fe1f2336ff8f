package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/spf13/viper"
)

/* Config is read from an optional .env file (TOML) in the working
 * directory, overridden by environment variables of the same name.
 */

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBDriver             string `mapstructure:"DB_DRIVER"`
	DBHost               string `mapstructure:"DB_HOST"`
	DBPort               string `mapstructure:"DB_PORT"`
	DBUser               string `mapstructure:"DB_USER"`
	DBPassword           string `mapstructure:"DB_PASSWORD"`
	DBName               string `mapstructure:"DB_NAME"`
	DBSSLMode            string `mapstructure:"DB_SSLMODE"`
	SQLitePath           string `mapstructure:"SQLITE_PATH"`
	DBMaxOpenConns       int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns       int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifeMinutes int    `mapstructure:"DB_CONN_MAX_LIFE_MINUTES"`

	// empty REDIS_ADDR disables the change feed
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int    `mapstructure:"REDIS_DB"`
	EventsStream        string `mapstructure:"EVENTS_STREAM"`
	EventsSigningSecret string `mapstructure:"EVENTS_SIGNING_SECRET"`

	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
	SeedFile       string `mapstructure:"SEED_FILE"`
}

var defaults = map[string]any{
	"PORT":                     "3000",
	"LOG_LEVEL":                "info",
	"DB_DRIVER":                DriverMySQL,
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "",
	"DB_USER":                  "root",
	"DB_PASSWORD":              "",
	"DB_NAME":                  "books_db",
	"DB_SSLMODE":               "disable",
	"SQLITE_PATH":              "books.db",
	"DB_MAX_OPEN_CONNS":        25,
	"DB_MAX_IDLE_CONNS":        5,
	"DB_CONN_MAX_LIFE_MINUTES": 5,
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"EVENTS_STREAM":            "books:events",
	"EVENTS_SIGNING_SECRET":    "",
	"METRICS_ENABLED":          true,
	"SEED_FILE":                "",
}

func GetConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// Validate checks what the selected driver needs.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres:
		if c.DBHost == "" {
			return fmt.Errorf("DB_HOST is required for %s", c.DBDriver)
		}
		if c.DBUser == "" {
			return fmt.Errorf("DB_USER is required for %s", c.DBDriver)
		}
		if c.DBName == "" {
			return fmt.Errorf("DB_NAME is required for %s", c.DBDriver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want mysql, postgres or sqlite)", c.DBDriver)
	}
	if c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0 || c.DBConnMaxLifeMinutes < 0 {
		return fmt.Errorf("pool settings must not be negative")
	}
	return nil
}

// DatabasePort returns DB_PORT or the driver's default port.
func (c *Config) DatabasePort() string {
	if c.DBPort != "" {
		return c.DBPort
	}
	if c.DBDriver == DriverPostgres {
		return "5432"
	}
	return "3306"
}

// PostgresConnectionString builds a lib/pq URL.
func (c *Config) PostgresConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DatabasePort()),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}
