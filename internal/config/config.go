package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string    `mapstructure:"env"`               // current application environment (local, dev, prod etc)
	TelegramAPIToken string    `mapstructure:"-"`                 // Telegram API token loaded from environment
	Content          Content   `mapstructure:"content"`           // content catalog locations
	Tiers            Tiers     `mapstructure:"tiers"`             // per-tier batch composition parameters
	Retention        Retention `mapstructure:"retention"`         // daily card set retention settings
	DB               DB        `mapstructure:"database"`          // database configuration section
}

// Content points at the tier content catalogs on disk.
type Content struct {
	BasicPath   string `mapstructure:"basic_path"`
	PremiumPath string `mapstructure:"premium_path"`
}

// TierParams describes one tier's daily batch: how many cards and which
// fraction of them should be never-seen content.
type TierParams struct {
	TargetCount     int     `mapstructure:"target_count"`
	NewContentRatio float64 `mapstructure:"new_content_ratio"`
}

// Tiers groups the batch parameters of both subscription tiers.
type Tiers struct {
	Basic   TierParams `mapstructure:"basic"`
	Premium TierParams `mapstructure:"premium"`
}

// Retention controls how long materialized daily card sets are kept.
type Retention struct {
	Days         int    `mapstructure:"days"`
	CronSchedule string `mapstructure:"cron_schedule"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("content.basic_path", "assets/data/cards_basic.json")
	v.SetDefault("content.premium_path", "assets/data/cards_premium.json")
	v.SetDefault("tiers.basic.target_count", 40)
	v.SetDefault("tiers.basic.new_content_ratio", 0.8)
	v.SetDefault("tiers.premium.target_count", 100)
	v.SetDefault("tiers.premium.new_content_ratio", 0.9)
	v.SetDefault("retention.days", 7)
	v.SetDefault("retention.cron_schedule", "0 3 * * *")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	// The database URL may legitimately be absent: the bot then runs on the
	// in-memory store and progress does not survive a restart.
	cfg.DB.URL = v.GetString("database_url")

	return &cfg, nil
}
