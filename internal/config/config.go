// Package config provides configuration management for the sharpline
// pipeline.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	OddsAPI  OddsAPIConfig  `mapstructure:"odds_api" validate:"required"`
	Strategy StrategyConfig `mapstructure:"strategy" validate:"required"`
	Pipeline PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Injuries InjuriesConfig `mapstructure:"injuries"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// OddsAPIConfig represents The Odds API client configuration
type OddsAPIConfig struct {
	Host            string   `mapstructure:"host" validate:"required,url"`
	APIKey          string   `mapstructure:"api_key" validate:"required"`
	Regions         []string `mapstructure:"regions" validate:"required,min=1"`
	Markets         []string `mapstructure:"markets" validate:"required,min=1"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries      int      `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSec float64  `mapstructure:"rate_limit_per_sec" validate:"gt=0"`
}

// StrategyConfig represents staking and risk configuration
type StrategyConfig struct {
	Bankroll             float64 `mapstructure:"bankroll" validate:"required,gt=0"`
	KellyFraction        float64 `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	MaxDailyStakePercent float64 `mapstructure:"max_daily_stake_percent" validate:"required,gt=0,lte=1"`
	InjuryEdgeThreshold  float64 `mapstructure:"injury_edge_threshold" validate:"gte=0,lte=1"`
}

// PipelineConfig represents the signal pipeline's runtime parameters
type PipelineConfig struct {
	Sports             []string `mapstructure:"sports" validate:"required,min=1,sportkeys"`
	Bookmakers         []string `mapstructure:"bookmakers"`
	HistoryBufferSize  int      `mapstructure:"history_buffer_size" validate:"required,gt=0"`
	LookbackHours      int      `mapstructure:"lookback_hours" validate:"required,gt=0"`
	LookaheadHours     int      `mapstructure:"lookahead_hours" validate:"required,gt=0"`
	SettlementDaysBack int      `mapstructure:"settlement_days_back" validate:"required,min=1,max=3"`
	CycleCron          string   `mapstructure:"cycle_cron"`
	PollIntervalSecs   int      `mapstructure:"poll_interval_secs" validate:"gte=0"`
}

// InjuriesConfig represents injury feed configuration
type InjuriesConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	CacheTTLMins int            `mapstructure:"cache_ttl_mins" validate:"gte=0"`
	Sources      []InjurySource `mapstructure:"sources"`
}

// InjurySource represents one injury feed entry
type InjurySource struct {
	Name        string  `mapstructure:"name" validate:"required"`
	SportPrefix string  `mapstructure:"sport_prefix" validate:"required"`
	URL         string  `mapstructure:"url" validate:"required,url"`
	Reliability float64 `mapstructure:"reliability" validate:"gte=0,lte=1"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// OddsAPITimeout returns the configured request timeout.
func (c *Config) OddsAPITimeout() time.Duration {
	return time.Duration(c.OddsAPI.TimeoutSeconds) * time.Second
}

// Lookback returns the snapshot window the pipeline processes.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Pipeline.LookbackHours) * time.Hour
}

// Lookahead returns the upcoming-event window the pipeline prices.
func (c *Config) Lookahead() time.Duration {
	return time.Duration(c.Pipeline.LookaheadHours) * time.Hour
}
