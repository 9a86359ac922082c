package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/imishinist/graphalytics-kgraphs/internal/config"
)

const (
	appName           = "graphalytics-kgraphs"
	defaultConfigFile = "config/platform.properties"
)

var (
	cfgFile string
	logger  *logrus.Entry
	vp      = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Graphalytics platform driver for Kafka Graphs",
	Long: `A Graphalytics benchmark driver for the Kafka Graphs engine.
Loads graphs, executes algorithm runs on the engine and reports their
processing time and makespan.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// ExecuteContext runs the root command. Engine processes are killed when ctx
// is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", defaultConfigFile, "Platform properties file")
	flags.String("log-level", "info", "Log level (debug/info/warn/error)")
	flags.String("tracking-uri", "", "MLflow tracking URI (overrides MLFLOW_TRACKING_URI)")
	flags.String("experiment-id", "", "Experiment ID (overrides MLFLOW_EXPERIMENT_ID)")
	vp.BindPFlag(config.KeyTrackingURI, flags.Lookup("tracking-uri"))
	vp.BindPFlag(config.KeyExperimentID, flags.Lookup("experiment-id"))
}

func initConfig() {
	config.SetDefaults(vp)

	// GRAPHALYTICS_PLATFORM_KGRAPHS_EXECUTABLE overrides platform.kgraphs.executable.
	vp.SetEnvPrefix("GRAPHALYTICS")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vp.AutomaticEnv()

	vp.BindEnv(config.KeyTrackingURI, "MLFLOW_TRACKING_URI")
	vp.BindEnv(config.KeyExperimentID, "MLFLOW_EXPERIMENT_ID")
	vp.BindEnv(config.KeyDatabricksHost, "DATABRICKS_HOST")
	vp.BindEnv(config.KeyDatabricksToken, "DATABRICKS_TOKEN")
	vp.BindEnv(config.KeyArchiveAccessKey, "AWS_ACCESS_KEY_ID")
	vp.BindEnv(config.KeyArchiveSecretKey, "AWS_SECRET_ACCESS_KEY")
}

func setup(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	var err error
	if logger, err = makeLogger(level); err != nil {
		return err
	}

	// The default properties file is optional; one named explicitly is not.
	err = config.ReadFile(vp, cfgFile)
	switch {
	case err == nil:
		logger.WithField("config", cfgFile).Debug("loaded platform configuration")
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		logger.WithField("config", cfgFile).Debug("platform configuration not found, using defaults")
	default:
		return err
	}
	return nil
}

func makeLogger(level string) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetOutput(os.Stderr)
	rootLogger.SetLevel(lvl)
	return rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	}), nil
}
