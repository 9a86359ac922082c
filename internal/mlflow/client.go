// Package mlflow reports benchmark runs to an MLflow tracking server, either
// a plain MLflow deployment or a Databricks workspace.
package mlflow

import (
	"context"
	"fmt"
	"net/http"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/juju/clock"

	"github.com/imishinist/graphalytics-kgraphs/internal/config"
)

// experimentsAPI is the subset of the MLflow experiments service used by the
// client.
type experimentsAPI interface {
	CreateRun(ctx context.Context, request ml.CreateRun) (*ml.CreateRunResponse, error)
	UpdateRun(ctx context.Context, request ml.UpdateRun) (*ml.UpdateRunResponse, error)
	LogMetric(ctx context.Context, request ml.LogMetric) error
	LogParam(ctx context.Context, request ml.LogParam) error
}

// workspaceAPI signs raw requests against the Databricks REST API for
// endpoints the SDK does not wrap.
type workspaceAPI struct {
	host         string
	authenticate func(*http.Request) error
}

type Client struct {
	experiments experimentsAPI
	config      *config.Config
	token       string
	httpClient  *http.Client
	clock       clock.Clock

	// workspace is nil unless tracking goes to Databricks.
	workspace *workspaceAPI
}

func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateTracking(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var databricksConfig *databricks.Config

	if cfg.IsDatabricks() {
		databricksConfig = &databricks.Config{}

		if cfg.TrackingURI == "databricks" {
			if cfg.DatabricksHost != "" {
				databricksConfig.Host = cfg.DatabricksHost
			}
		} else if profile := cfg.GetDatabricksProfile(); profile != "" {
			databricksConfig.Profile = profile
		} else {
			databricksConfig.Host = cfg.TrackingURI
		}

		// An explicit token overrides the profile.
		if cfg.DatabricksToken != "" {
			databricksConfig.Token = cfg.DatabricksToken
		}

		if databricksConfig.Host == "" && databricksConfig.Profile == "" {
			return nil, fmt.Errorf("Databricks host or profile is required when using Databricks MLflow. Set %s, use a full Databricks URL as tracking URI, or specify a profile with databricks://{profile}", config.KeyDatabricksHost)
		}
	} else {
		// Plain MLflow servers do not authenticate, but the SDK insists on
		// some credentials.
		databricksConfig = &databricks.Config{
			Host:  cfg.TrackingURI,
			Token: "unused-for-plain-mlflow",
		}
	}

	workspace, err := databricks.NewWorkspaceClient(databricksConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create MLflow client: %w", err)
	}

	token := cfg.DatabricksToken
	if token == "" && cfg.IsDatabricks() && workspace.Config != nil {
		token = workspace.Config.Token
	}
	client := newClient(workspace.Experiments, cfg, token, http.DefaultClient, clock.WallClock)
	if cfg.IsDatabricks() {
		client.workspace = &workspaceAPI{
			host:         workspace.Config.Host,
			authenticate: workspace.Config.Authenticate,
		}
	}
	return client, nil
}

func newClient(experiments experimentsAPI, cfg *config.Config, token string, httpClient *http.Client, clk clock.Clock) *Client {
	return &Client{
		experiments: experiments,
		config:      cfg,
		token:       token,
		httpClient:  httpClient,
		clock:       clk,
	}
}
