// Package main provides a one-shot settlement run: resolves completed
// events against the scores endpoint so their feature rows become
// calibrator training data.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/oddsapi"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/service"
)

var configFile string

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "settle",
	Short: "Settle completed events against final scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSettle()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runSettle() error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

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
	client := oddsapi.NewClient(clientCfg, appLog)

	settlement := service.NewSettlementService(client, repos.Events, cfg.Pipeline.SettlementDaysBack, appLog)
	settled := settlement.SettleAll(ctx, cfg.Pipeline.Sports)
	appLog.WithField("settled", settled).Info("Settlement run complete")
	return nil
}
