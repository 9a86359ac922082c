package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imishinist/graphalytics-kgraphs/internal/archive"
	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/mlflow"
	"github.com/imishinist/graphalytics-kgraphs/internal/platform"
	"github.com/imishinist/graphalytics-kgraphs/internal/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a benchmark run",
	Long: `Execute one algorithm run on a loaded graph and print its metrics.
The run is reported to MLflow and archived to object storage when those are
configured.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("spec", "", "Run specification file (JSON/YAML) (required)")
	runCmd.Flags().String("format", "json", "Output format of the metrics (json/yaml)")
	runCmd.Flags().String("metrics-textfile", "", "Write Prometheus metrics to this file")
	runCmd.Flags().StringArray("tag", []string{}, "Additional MLflow run tags in key=value format")
	runCmd.MarkFlagRequired("spec")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	specPath, _ := cmd.Flags().GetString("spec")
	format, _ := cmd.Flags().GetString("format")
	textfile, _ := cmd.Flags().GetString("metrics-textfile")
	tags, _ := cmd.Flags().GetStringArray("tag")

	spec, err := readRunSpec(specPath)
	if err != nil {
		return err
	}

	cfg := config.FromViper(vp)
	recorder := telemetry.NewRecorder()
	reporters, err := buildReporters(cfg, tags)
	if err != nil {
		return err
	}

	p, err := platform.New(platform.Config{
		Platform:  cfg,
		Reporters: append([]platform.Reporter{recorder}, reporters...),
		Output:    os.Stderr,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	metrics, runErr := p.Execute(cmd.Context(), *spec)

	if textfile != "" {
		if err := recorder.WriteTextfile(textfile); err != nil {
			logger.WithField("err", err).Warn("failed to write metrics textfile")
		}
	}
	if metrics != nil {
		if err := writeRecord(os.Stdout, format, metrics); err != nil {
			return err
		}
	}
	return runErr
}

// buildReporters returns the reporters enabled by cfg.
func buildReporters(cfg *config.Config, tags []string) ([]platform.Reporter, error) {
	var reporters []platform.Reporter

	if cfg.TrackingEnabled() {
		tagMap, err := parseTags(tags)
		if err != nil {
			return nil, err
		}
		tagMap["platform"] = platform.Name

		client, err := mlflow.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create MLflow client: %w", err)
		}
		reporters = append(reporters, mlflow.NewReporter(client, mlflow.ReporterConfig{
			ExperimentID: cfg.ExperimentID,
			Tags:         tagMap,
			Logger:       logger.WithField("reporter", "mlflow"),
		}))
	}

	if cfg.Archive.Enabled() {
		uploader, err := archive.New(cfg.Archive, logger.WithField("reporter", "archive"))
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, uploader)
	}
	return reporters, nil
}

// parseTags parses tag strings in key=value format
func parseTags(tags []string) (map[string]string, error) {
	tagMap := make(map[string]string)
	for _, tag := range tags {
		parts := strings.SplitN(tag, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid tag format: %s (expected key=value)", tag)
		}
		tagMap[parts[0]] = parts[1]
	}
	return tagMap, nil
}
