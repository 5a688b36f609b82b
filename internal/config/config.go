package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	Database    DatabaseConfig
	Collector   CollectorConfig
	AirQuality  AirQualityConfig
}

// DatabaseConfig holds the connection settings for the PostgreSQL database.
// Name, user, password, host and port are injected through the environment
// and are all required.
type DatabaseConfig struct {
	Name     string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	MigrationsPath  string
}

// CollectorConfig holds configuration for the feed collection job
type CollectorConfig struct {
	FeedsPath   string `validate:"required"`
	Schedule    string `validate:"required"`
	HTTPTimeout time.Duration
	ArchivePath string
}

// AirQualityConfig holds domain thresholds shared by the query layer
type AirQualityConfig struct {
	// Threshold is the AQI value a pollutant must exceed for its location
	// to be reported by the above-average endpoint.
	Threshold int `validate:"gte=0"`
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_SSLMODE", "require")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 5)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 2)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	viper.SetDefault("DB_QUERY_TIMEOUT", "10s")
	viper.SetDefault("DB_MIGRATIONS_PATH", "./migrations")
	viper.SetDefault("COLLECTOR_FEEDS_PATH", "./city_urls.csv")
	viper.SetDefault("COLLECTOR_SCHEDULE", "*/15 * * * *")
	viper.SetDefault("COLLECTOR_HTTP_TIMEOUT", "30s")
	viper.SetDefault("AIR_QUALITY_THRESHOLD", 100)

	config := &Config{
		Environment: viper.GetString("ENVIRONMENT"),
		Port:        viper.GetString("PORT"),
		Database: DatabaseConfig{
			Name:            viper.GetString("DB_NAME"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			QueryTimeout:    viper.GetDuration("DB_QUERY_TIMEOUT"),
			MigrationsPath:  viper.GetString("DB_MIGRATIONS_PATH"),
		},
		Collector: CollectorConfig{
			FeedsPath:   viper.GetString("COLLECTOR_FEEDS_PATH"),
			Schedule:    viper.GetString("COLLECTOR_SCHEDULE"),
			HTTPTimeout: viper.GetDuration("COLLECTOR_HTTP_TIMEOUT"),
			ArchivePath: viper.GetString("COLLECTOR_ARCHIVE_PATH"),
		},
		AirQuality: AirQualityConfig{
			Threshold: viper.GetInt("AIR_QUALITY_THRESHOLD"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN builds the PostgreSQL connection string. The password is URL-escaped
// so credentials containing reserved characters do not break the URL.
func (c *DatabaseConfig) DSN() string {
	hostPort := net.JoinHostPort(c.Host, c.Port)

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.User,
		url.QueryEscape(c.Password),
		hostPort,
		c.Name,
		c.SSLMode,
	)
}
