package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olegiv/cbl-analyzer-go/internal/ai"
	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
	"github.com/olegiv/cbl-analyzer-go/internal/config"
	"github.com/olegiv/cbl-analyzer-go/internal/las"
	"github.com/olegiv/cbl-analyzer-go/internal/layers"
	"github.com/olegiv/cbl-analyzer-go/internal/logging"
	"github.com/olegiv/cbl-analyzer-go/internal/notification"
	"github.com/olegiv/cbl-analyzer-go/internal/report"
	"github.com/olegiv/cbl-analyzer-go/internal/storage"
	"github.com/olegiv/cbl-analyzer-go/pkg/logger"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI arguments first
	cli := config.ParseCLI()

	if cli.ShowHelp {
		config.PrintUsage()
		return exitSuccess
	}

	if cli.ShowVersion {
		fmt.Printf("cbl-analyzer %s\n", version)
		if gitCommit != "unknown" {
			fmt.Printf("  commit: %s\n", gitCommit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
		return exitSuccess
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load configuration with CLI overrides
	cfg, err := config.LoadWithCLI(cli)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitFailure
	}

	// Initialize logger with credential sanitization
	baseLog := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     "./logs",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    true,
	})
	log := logging.NewSecure(baseLog)
	defer func() {
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()

	log.Info().Str("las_path", cfg.LASPath).Msg("Starting CBL Analyzer")

	if err := runAnalysis(ctx, cfg, cli, log); err != nil {
		log.Error().Err(err).Msg("Analysis failed")
		return exitFailure
	}

	log.Info().Msg("Analysis completed successfully")
	return exitSuccess
}

func runAnalysis(ctx context.Context, cfg *config.Config, cli *config.CLIOptions, log *logging.SecureLogger) error {
	startTime := time.Now()

	// 1. Initialize storage (if enabled)
	var store *storage.Storage
	var err error

	if cfg.EnableDatabase {
		store, err = storage.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer func(store *storage.Storage) {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		}(store)
		log.Info().Str("path", cfg.DatabasePath).Msg("Database initialized")
	}

	// 2. Initialize Telegram client (optional)
	var telegramClient *notification.TelegramClient
	if cfg.HasTelegram() {
		telegramClient, err = notification.NewTelegramClient(
			cfg.TelegramBotToken,
			cfg.TelegramArchiveChannel,
			cfg.TelegramAlertsChannel,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		defer func(telegramClient *notification.TelegramClient) {
			if err := telegramClient.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close Telegram client")
			}
		}(telegramClient)

		botInfo := telegramClient.GetBotInfo()
		log.Info().
			Str("username", botInfo["username"].(string)).
			Msg("Telegram bot initialized")
	}

	// 3. Read the LAS log
	log.Info().Str("path", cfg.LASPath).Msg("Reading LAS file...")
	raw, err := las.NewReader(cfg.MaxLogSizeMB).Read(cfg.LASPath)
	if err != nil {
		return fmt.Errorf("failed to read LAS file: %w", err)
	}

	if info, err := las.NewReader(cfg.MaxLogSizeMB).GetFileInfo(cfg.LASPath); err == nil {
		log.Info().
			Float64("size_mb", info["size_mb"].(float64)).
			Msg("LAS file read successfully")
	}

	ds, err := las.NewParser(cfg.LASNullValue).Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse LAS file: %w", err)
	}
	log.Info().
		Str("well", ds.Well).
		Int("curves", len(ds.Curves)).
		Int("records", len(ds.Records)).
		Float64("step_m", ds.Step).
		Msg("LAS file parsed")

	// 4. Read layer boundaries (optional)
	var boundaries []cbl.LayerBoundary
	if cli.LayersPath != "" {
		var skipped int
		boundaries, skipped, err = layers.NewReader(cfg.MaxLogSizeMB).Read(cli.LayersPath)
		if err != nil {
			return fmt.Errorf("failed to read layer boundaries: %w", err)
		}
		log.Info().
			Int("layers", len(boundaries)).
			Int("skipped", skipped).
			Msg("Layer boundaries loaded")
	}

	// 5. Run the bond-quality pipeline
	log.Info().Msg("Analyzing cement bond quality...")
	result, err := cbl.Analyze(ds, boundaries, cfg.Params(cli))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	logEvent := log.Info().
		Str("amplitude_curve", result.AmplitudeCurve).
		Float64("toc_m", result.KPIs[cbl.KPITOC]).
		Float64("good_pct", result.KPIs[cbl.KPIGoodPct]).
		Int("bad_intervals", len(result.Intervals)).
		Int("layers", len(result.Layers))
	if score, ok := result.KPIs[cbl.KPICementScore]; ok {
		logEvent = logEvent.Float64("cement_score", score)
	}
	logEvent.Msg("Analysis completed")

	// 6. Persist the result (if enabled)
	if store != nil {
		analysis := storage.FromResult(result, time.Now())
		if err := store.SaveAnalysis(analysis); err != nil {
			log.Warn().Err(err).Msg("Failed to save analysis to database")
		} else {
			log.Info().Int64("id", analysis.ID).Msg("Analysis saved to database")
		}

		deleted, err := store.CleanupOldAnalyses(90)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to cleanup old analyses")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("Old analyses cleaned up")
		}
	}

	// 7. Render the chart (if requested)
	if cli.ChartPath != "" {
		if err := report.WriteChart(result, cli.ChartPath); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		log.Info().Str("path", cli.ChartPath).Msg("Chart written")
	}

	// 8. Generate the AI narrative (optional)
	var narrative string
	if cfg.EnableAISummary {
		proxyURL := cfg.GetProxyURL(true)
		claudeClient, err := ai.NewClient(cfg.AnthropicAPIKey, cfg.ClaudeModel, proxyURL, cfg.AITimeoutSeconds, cfg.AIMaxTokens)
		if err != nil {
			return fmt.Errorf("failed to initialize Claude client: %w", err)
		}

		log.Info().Msg("Generating AI summary...")
		summary, stats, err := claudeClient.Summarize(ctx, ai.BuildReport(result))
		if err != nil {
			log.Warn().Err(err).Msg("AI summary failed, continuing without it")
		} else {
			narrative = summary
			log.Info().
				Int("input_tokens", stats.InputTokens).
				Int("output_tokens", stats.OutputTokens).
				Float64("cost_usd", stats.CostUSD).
				Float64("duration_s", stats.DurationSeconds).
				Msg("AI summary generated")
		}
	}

	// 9. Send Telegram notifications (optional)
	if telegramClient != nil {
		log.Info().Msg("Sending Telegram notifications...")
		if err := telegramClient.SendAnalysisReport(result, narrative); err != nil {
			return fmt.Errorf("failed to send Telegram notification: %w", err)
		}
		if cfg.HasAlertsChannel() && notification.ShouldAlert(result) {
			log.Info().Msg("Alert notification sent (bond quality warrants attention)")
		}
	}

	totalDuration := time.Since(startTime)
	log.Info().
		Float64("total_duration_s", totalDuration.Seconds()).
		Msg("All operations completed successfully")

	return nil
}
