package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/encoding/javaproperties"
	"github.com/hashicorp/go-multierror"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
)

// Configuration keys as they appear in the platform properties file.
const (
	KeyExecutable       = "platform.kgraphs.executable"
	KeyLoader           = "platform.kgraphs.loader"
	KeyUnloader         = "platform.kgraphs.unloader"
	KeyBootstrapServers = "platform.kgraphs.bootstrap-servers"
	KeyZookeeperConnect = "platform.kgraphs.zookeeper-connect"
	KeyNumPartitions    = "platform.kgraphs.num-partitions"
	KeyJobArguments     = "platform.kgraphs.job.arguments"
	KeyWorkingDirectory = "platform.kgraphs.job.working-directory"
	KeyEnvironment      = "platform.kgraphs.job.environment"
	KeyShell            = "platform.kgraphs.job.shell"
	KeyJobTimeout       = "platform.kgraphs.job.timeout"
	KeyIntermediateDir  = "platform.kgraphs.intermediate-dir"
	KeyLogStartPattern  = "platform.kgraphs.log.start-pattern"
	KeyLogEndPattern    = "platform.kgraphs.log.end-pattern"
	KeyLogElapsed       = "platform.kgraphs.log.elapsed-pattern"

	KeyTrackingURI     = "mlflow.tracking-uri"
	KeyExperimentID    = "mlflow.experiment-id"
	KeyDatabricksHost  = "databricks.host"
	KeyDatabricksToken = "databricks.token"

	KeyArchiveEndpoint  = "archive.s3.endpoint"
	KeyArchiveBucket    = "archive.s3.bucket"
	KeyArchivePrefix    = "archive.s3.prefix"
	KeyArchiveAccessKey = "archive.s3.access-key"
	KeyArchiveSecretKey = "archive.s3.secret-key"
	KeyArchiveRegion    = "archive.s3.region"
	KeyArchiveUseSSL    = "archive.s3.use-ssl"
)

// Default marker patterns emitted by the engine around the timed section.
const (
	DefaultLogStartPattern = `Processing starts at: (\d+)`
	DefaultLogEndPattern   = `Processing ends at: (\d+)`
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

type Config struct {
	ExecutablePath   string
	LoaderPath       string
	UnloaderPath     string
	BootstrapServers string
	ZookeeperConnect string
	NumPartitions    int
	JobArguments     []string
	WorkingDirectory string
	Environment      []string
	Shell            string
	JobTimeout       time.Duration
	IntermediateDir  string

	LogStartPattern   string
	LogEndPattern     string
	LogElapsedPattern string

	TrackingURI     string
	ExperimentID    string
	DatabricksHost  string
	DatabricksToken string

	Archive ArchiveConfig

	// parseErr records list values that could not be split into words.
	parseErr error
}

// ArchiveConfig holds the S3-compatible object store settings used to
// archive run logs.
type ArchiveConfig struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Enabled reports whether archiving has been configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyIntermediateDir, "./intermediate")
	v.SetDefault(KeyLogStartPattern, DefaultLogStartPattern)
	v.SetDefault(KeyLogEndPattern, DefaultLogEndPattern)
	v.SetDefault(KeyNumPartitions, 0)
	v.SetDefault(KeyJobTimeout, "0s")
	v.SetDefault(KeyArchiveUseSSL, true)
}

// ReadFile loads a properties file into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read platform configuration %s: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance able to decode platform properties
// files. Viper no longer ships a properties codec of its own.
func NewViper() *viper.Viper {
	registry := viper.NewCodecRegistry()
	registry.RegisterCodec("properties", &javaproperties.Codec{})
	return viper.NewWithOptions(viper.WithCodecRegistry(registry))
}

// FromViper builds a Config from the values held by v.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		ExecutablePath:    v.GetString(KeyExecutable),
		LoaderPath:        v.GetString(KeyLoader),
		UnloaderPath:      v.GetString(KeyUnloader),
		BootstrapServers:  v.GetString(KeyBootstrapServers),
		ZookeeperConnect:  v.GetString(KeyZookeeperConnect),
		NumPartitions:     v.GetInt(KeyNumPartitions),
		WorkingDirectory:  v.GetString(KeyWorkingDirectory),
		Shell:             v.GetString(KeyShell),
		JobTimeout:        v.GetDuration(KeyJobTimeout),
		IntermediateDir:   v.GetString(KeyIntermediateDir),
		LogStartPattern:   v.GetString(KeyLogStartPattern),
		LogEndPattern:     v.GetString(KeyLogEndPattern),
		LogElapsedPattern: v.GetString(KeyLogElapsed),
		TrackingURI:       v.GetString(KeyTrackingURI),
		ExperimentID:      v.GetString(KeyExperimentID),
		DatabricksHost:    v.GetString(KeyDatabricksHost),
		DatabricksToken:   v.GetString(KeyDatabricksToken),
		Archive: ArchiveConfig{
			Endpoint:  v.GetString(KeyArchiveEndpoint),
			Bucket:    v.GetString(KeyArchiveBucket),
			Prefix:    v.GetString(KeyArchivePrefix),
			AccessKey: v.GetString(KeyArchiveAccessKey),
			SecretKey: v.GetString(KeyArchiveSecretKey),
			Region:    v.GetString(KeyArchiveRegion),
			UseSSL:    v.GetBool(KeyArchiveUseSSL),
		},
	}

	var err error
	if cfg.JobArguments, err = shellquote.Split(v.GetString(KeyJobArguments)); err != nil {
		cfg.parseErr = multierror.Append(cfg.parseErr, xerrors.Errorf("%s: %w", KeyJobArguments, err))
	}
	if cfg.Environment, err = shellquote.Split(v.GetString(KeyEnvironment)); err != nil {
		cfg.parseErr = multierror.Append(cfg.parseErr, xerrors.Errorf("%s: %w", KeyEnvironment, err))
	}
	return cfg
}

// Validate checks the settings needed to run jobs and reports every problem
// found.
func (c *Config) Validate() error {
	var err error
	if c.parseErr != nil {
		err = multierror.Append(err, c.parseErr)
	}
	if c.ExecutablePath == "" {
		err = multierror.Append(err, xerrors.Errorf("%s has not been specified", KeyExecutable))
	}
	if c.NumPartitions < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for %s: %d", KeyNumPartitions, c.NumPartitions))
	}
	if c.JobTimeout < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for %s: %s", KeyJobTimeout, c.JobTimeout))
	}
	for _, env := range c.Environment {
		if !strings.Contains(env, "=") {
			err = multierror.Append(err, xerrors.Errorf("invalid entry in %s: %q (expected KEY=VALUE)", KeyEnvironment, env))
		}
	}
	patterns := []struct {
		key     string
		pattern string
	}{
		{KeyLogStartPattern, c.LogStartPattern},
		{KeyLogEndPattern, c.LogEndPattern},
		{KeyLogElapsed, c.LogElapsedPattern},
	}
	for _, p := range patterns {
		if p.pattern == "" {
			continue
		}
		re, reErr := regexp.Compile(p.pattern)
		if reErr != nil {
			err = multierror.Append(err, xerrors.Errorf("invalid pattern for %s: %w", p.key, reErr))
			continue
		}
		if re.NumSubexp() != 1 {
			err = multierror.Append(err, xerrors.Errorf("pattern for %s must have exactly one capture group", p.key))
		}
	}
	return err
}

// ValidateTracking checks the settings needed to report runs to MLflow.
func (c *Config) ValidateTracking() error {
	if c.TrackingURI == "" {
		return fmt.Errorf("tracking URI is required")
	}
	if c.ExperimentID == "" {
		return fmt.Errorf("experiment ID must be specified via --experiment-id flag or MLFLOW_EXPERIMENT_ID environment variable")
	}
	return nil
}

// TrackingEnabled reports whether enough MLflow settings are present to
// report runs.
func (c *Config) TrackingEnabled() bool {
	return c.TrackingURI != "" && c.ExperimentID != ""
}

// IsDatabricks checks if the tracking URI points to Databricks
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" {
		return true
	}

	if strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}

	if strings.HasPrefix(c.TrackingURI, "https://") {
		host := c.extractHostFromURL(c.TrackingURI)
		return c.isDatabricksHost(host)
	}

	return false
}

// extractHostFromURL extracts the hostname from a URL
func (c *Config) extractHostFromURL(url string) string {
	host := strings.TrimPrefix(url, "https://")
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func (c *Config) isDatabricksHost(host string) bool {
	for _, domain := range databricksDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// GetDatabricksProfile extracts the profile name from databricks://{profile} URI
func (c *Config) GetDatabricksProfile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}

	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	if idx := strings.Index(profile, "/"); idx != -1 {
		profile = profile[:idx]
	}
	return profile
}
