package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imishinist/graphalytics-kgraphs/internal/archive"
	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/mlflow"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the platform setup",
	Long: `Validate the platform configuration, check that the engine binaries can
be executed and that the configured reporting backends are reachable.`,
	RunE: verify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verify(cmd *cobra.Command, args []string) error {
	p, err := newPlatform()
	if err != nil {
		return err
	}
	if err := p.VerifySetup(); err != nil {
		return fmt.Errorf("platform setup verification failed: %w", err)
	}
	fmt.Printf("platform %s: ok\n", p.Name())

	cfg := config.FromViper(vp)
	if cfg.TrackingEnabled() {
		if _, err := mlflow.NewClient(cfg); err != nil {
			return fmt.Errorf("failed to create MLflow client: %w", err)
		}
		fmt.Printf("mlflow %s: ok\n", cfg.TrackingURI)
	}

	if cfg.Archive.Enabled() {
		uploader, err := archive.New(cfg.Archive, logger)
		if err != nil {
			return err
		}
		if err := uploader.CheckBucket(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("archive s3://%s: ok\n", cfg.Archive.Bucket)
	}
	return nil
}
