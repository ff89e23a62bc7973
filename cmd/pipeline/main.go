// Package main provides the entry point for the signal pipeline daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/health"
	"github.com/yourusername/sharpline/internal/injuries"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/oddsapi"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/scheduler"
	"github.com/yourusername/sharpline/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	runOnce    bool

	appLog *logrus.Logger
	cfg    *config.Config
	db     *database.DB
	repos  *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single pipeline cycle and exit")
}

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run the odds signal pipeline",
	Long:  `Ingests bookmaker odds, derives consensus features, calibrates probabilities and sizes qualifying bets on a schedule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(); err != nil {
			return fmt.Errorf("failed to set up pipeline: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setup() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appLog = logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Sharpline pipeline starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialise schema: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return err
	}
	return nil
}

func run() error {
	defer db.Close()

	metrics.InitRegistry()

	pipeline, ingestion := buildServices()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if runOnce {
		return pipeline.RunCycle(ctx)
	}

	healthSrv := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		MaxCycleAge: 3 * time.Hour,
		Logger:      appLog,
		DB:          db,
		Cycles:      pipeline,
	})
	if err := healthSrv.Start(ctx); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx)
	}

	sched := scheduler.NewScheduler(pipeline, ingestion, appLog)
	cronExpr := cfg.Pipeline.CycleCron
	if cronExpr == "" {
		cronExpr = "@every 15m"
	}
	if err := sched.ScheduleCycles(cronExpr); err != nil {
		return err
	}
	if cfg.Pipeline.PollIntervalSecs > 0 {
		if err := sched.SchedulePolling(cfg.Pipeline.PollIntervalSecs, cfg.Pipeline.Sports); err != nil {
			return err
		}
	}
	if err := sched.Start(); err != nil {
		return err
	}
	healthSrv.SetReady(true)

	// First cycle immediately rather than waiting out the cron interval
	go func() {
		if err := pipeline.RunCycle(ctx); err != nil {
			appLog.WithError(err).Error("Initial pipeline cycle failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	appLog.Info("Shutting down")
	healthSrv.SetReady(false)
	sched.Stop()
	cancel()
	return nil
}

func buildServices() (*service.PipelineService, *service.IngestionService) {
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
	settlement := service.NewSettlementService(client, repos.Events, cfg.Pipeline.SettlementDaysBack, appLog)

	var injuryIngestor *injuries.Ingestor
	if cfg.Injuries.Enabled {
		sources := injuries.DefaultSources()
		if len(cfg.Injuries.Sources) > 0 {
			sources = sources[:0]
			for _, s := range cfg.Injuries.Sources {
				sources = append(sources, injuries.Source{
					Name:        s.Name,
					SportPrefix: s.SportPrefix,
					URL:         s.URL,
					Reliability: s.Reliability,
				})
			}
		}
		ttl := time.Duration(cfg.Injuries.CacheTTLMins) * time.Minute
		feedClient := injuries.NewRateLimitedHTTPClient(injuries.DefaultHTTPClientConfig())
		injuryIngestor = injuries.NewIngestor(sources, feedClient, ttl, appLog)
	}

	pipeline := service.NewPipelineService(cfg, ingestion, settlement, injuryIngestor, repos, appLog)
	return pipeline, ingestion
}

func startMetricsServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	go func() {
		appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}
