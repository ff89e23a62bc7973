// Package main provides a one-shot odds ingestion run. In backfill
// mode it walks the historical odds archive instead, seeding enough
// snapshot history for calibrator training on a fresh database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/oddsapi"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/service"
)

var (
	configFile    string
	sportsFlag    []string
	backfillFlag  bool
	daysFlag      int
	intervalHours int
)

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringSliceVar(&sportsFlag, "sports", nil, "Sports to ingest (defaults to configured list)")
	rootCmd.Flags().BoolVar(&backfillFlag, "backfill", false, "Walk the historical odds archive instead of fetching live odds")
	rootCmd.Flags().IntVar(&daysFlag, "days", 30, "How many days back the backfill window starts")
	rootCmd.Flags().IntVar(&intervalHours, "interval", 24, "Hours between archived snapshots (24 = daily)")
}

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch and store one round of bookmaker odds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runIngest() error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		if err := config.LoadSecretsFromAWS(cfg, os.Getenv("AWS_REGION"), os.Getenv("AWS_SECRET_NAME")); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	timeout := 10 * time.Minute
	if backfillFlag {
		// Walking weeks of archive at the API's rate limit takes a
		// while longer than a live fetch.
		timeout = time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialise schema: %w", err)
	}

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	clientCfg := oddsapi.DefaultClientConfig()
	clientCfg.Host = cfg.OddsAPI.Host
	clientCfg.APIKey = cfg.OddsAPI.APIKey
	clientCfg.Regions = cfg.OddsAPI.Regions
	clientCfg.Markets = cfg.OddsAPI.Markets
	clientCfg.Timeout = cfg.OddsAPITimeout()
	clientCfg.MaxRetries = cfg.OddsAPI.MaxRetries
	clientCfg.RateLimit = cfg.OddsAPI.RateLimitPerSec
	client := oddsapi.NewClient(clientCfg, appLog)

	ingestion := service.NewIngestionService(client, repos.Events, repos.Snapshots, cfg.Pipeline.Bookmakers, appLog)

	sports := sportsFlag
	if len(sports) == 0 {
		sports = cfg.Pipeline.Sports
	}

	if backfillFlag {
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -daysFlag).Truncate(time.Hour)
		step := time.Duration(intervalHours) * time.Hour
		if err := ingestion.BackfillAll(ctx, sports, from, to, step); err != nil {
			return err
		}
		appLog.WithFields(logrus.Fields{
			"sports": sports,
			"from":   from.Format(time.RFC3339),
			"to":     to.Format(time.RFC3339),
		}).Info("Backfill run complete")
		return nil
	}

	if err := ingestion.IngestAll(ctx, sports); err != nil {
		return err
	}
	appLog.WithFields(logrus.Fields{"sports": sports}).Info("Ingestion run complete")
	return nil
}
