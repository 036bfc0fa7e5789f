package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stagegate-io/stagegate/internal/core/domain"
	"github.com/stagegate-io/stagegate/pkg/stagegate"
)

var (
	configPath      string
	datasetID       string
	complianceLevel string
	analysisType    string
	timeout         time.Duration
	verbose         bool
)

// rootCmd runs the pipeline once and prints the run report.
var rootCmd = &cobra.Command{
	Use:   "runpipeline",
	Short: "Run the compliance-gated analysis pipeline once and print the report",
	Long: `runpipeline executes a single pipeline run against the configured stages,
validates the outcome against the configured compliance standards, appends
the compliance report to the audit trail, and prints the run report as JSON.

The process exits 0 when the run succeeds and 1 when it fails. A compliance
violation appears in the report but does not change the exit code; only a
halted pipeline does.`,
	SilenceUsage: true,
	RunE:         runOnce,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.Flags().StringVar(&datasetID, "dataset-id", "", "Dataset to process (default: enterprise_demo_dataset)")
	rootCmd.Flags().StringVar(&complianceLevel, "compliance-level", "", "Standards to check: all or a single standard name (default: all)")
	rootCmd.Flags().StringVar(&analysisType, "analysis-type", "", "Analysis for the LLM stage to perform (default: business_intelligence)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall run timeout")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func runOnce(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Logs go to stderr so stdout stays clean JSON
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	svc, err := stagegate.New(
		stagegate.WithFileConfig(configPath),
		stagegate.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := svc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	report := svc.Run(ctx, domain.RunRequest{
		DatasetID:       datasetID,
		ComplianceLevel: complianceLevel,
		AnalysisType:    analysisType,
	})

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(out))

	// Close the audit trail and config watcher before exiting
	if err := svc.Shutdown(context.Background()); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}

	if report.Status == domain.ReportStatusFailure {
		os.Exit(1)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
