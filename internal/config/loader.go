package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("SHARPLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional
// fields; a missing file falls through to defaults plus environment.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("SHARPLINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "sharpline")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("odds_api.host", "https://api.the-odds-api.com")
	v.SetDefault("odds_api.regions", []string{"us", "us2"})
	v.SetDefault("odds_api.markets", []string{"h2h", "spreads", "totals", "player_points"})
	v.SetDefault("odds_api.timeout_seconds", 10)
	v.SetDefault("odds_api.max_retries", 3)
	v.SetDefault("odds_api.rate_limit_per_sec", 1.0)
	v.SetDefault("strategy.bankroll", 10000.0)
	v.SetDefault("strategy.kelly_fraction", 0.25)
	v.SetDefault("strategy.max_daily_stake_percent", 0.05)
	v.SetDefault("strategy.injury_edge_threshold", 0.10)
	v.SetDefault("pipeline.sports", []string{"basketball_nba", "americanfootball_nfl", "icehockey_nhl"})
	v.SetDefault("pipeline.bookmakers", []string{"draftkings", "pinnacle", "fanduel", "betmgm"})
	v.SetDefault("pipeline.history_buffer_size", 5)
	v.SetDefault("pipeline.lookback_hours", 24)
	v.SetDefault("pipeline.lookahead_hours", 30)
	v.SetDefault("pipeline.settlement_days_back", 3)
	v.SetDefault("injuries.enabled", true)
	v.SetDefault("injuries.cache_ttl_mins", 15)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}
