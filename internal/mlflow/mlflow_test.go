package mlflow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/juju/clock/testclock"
	gc "gopkg.in/check.v1"

	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

var _ = gc.Suite(new(MLflowTestSuite))

func Test(t *testing.T) { gc.TestingT(t) }

type fakeExperiments struct {
	artifactURI string
	paramErr    error

	created []ml.CreateRun
	updated []ml.UpdateRun
	metrics []ml.LogMetric
	params  []ml.LogParam
}

func (f *fakeExperiments) CreateRun(_ context.Context, req ml.CreateRun) (*ml.CreateRunResponse, error) {
	f.created = append(f.created, req)
	return &ml.CreateRunResponse{Run: &ml.Run{Info: &ml.RunInfo{RunId: "run-1", ArtifactUri: f.artifactURI}}}, nil
}

func (f *fakeExperiments) UpdateRun(_ context.Context, req ml.UpdateRun) (*ml.UpdateRunResponse, error) {
	f.updated = append(f.updated, req)
	return &ml.UpdateRunResponse{}, nil
}

func (f *fakeExperiments) LogMetric(_ context.Context, req ml.LogMetric) error {
	f.metrics = append(f.metrics, req)
	return nil
}

func (f *fakeExperiments) LogParam(_ context.Context, req ml.LogParam) error {
	if f.paramErr != nil {
		return f.paramErr
	}
	f.params = append(f.params, req)
	return nil
}

type MLflowTestSuite struct {
	now    time.Time
	clk    *testclock.Clock
	logDir string
	spec   models.RunSpecification
}

func (s *MLflowTestSuite) SetUpTest(c *gc.C) {
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.clk = testclock.NewClock(s.now)
	s.logDir = c.MkDir()
	s.spec = models.RunSpecification{
		Run: models.BenchmarkRun{
			ID:         "r1",
			Parameters: models.PRParameters{DampingFactor: 0.85, NumIterations: 10},
			GraphName:  "example-directed",
		},
		LogDir: s.logDir,
	}
}

func (s *MLflowTestSuite) writePlatformLog(c *gc.C, contents string) {
	c.Assert(os.MkdirAll(s.spec.PlatformLogDir(), 0755), gc.IsNil)
	c.Assert(os.WriteFile(s.spec.PlatformLogFile(), []byte(contents), 0644), gc.IsNil)
}

func (s *MLflowTestSuite) TestReportRun(c *gc.C) {
	artifactRoot := c.MkDir()
	s.writePlatformLog(c, "Processing starts at: 1000\n")

	fake := &fakeExperiments{artifactURI: "file://" + artifactRoot}
	client := newClient(fake, &config.Config{}, "", http.DefaultClient, s.clk)
	reporter := NewReporter(client, ReporterConfig{ExperimentID: "7", Tags: map[string]string{"platform": "kgraphs"}})

	metrics := &models.BenchmarkMetrics{
		ProcessingTime: &models.BenchmarkMetric{Value: 3.5, Unit: "s"},
		Makespan:       &models.BenchmarkMetric{Value: 4.0, Unit: "s"},
	}
	c.Assert(reporter.ReportRun(context.TODO(), s.spec, metrics, nil), gc.IsNil)

	c.Assert(fake.created, gc.HasLen, 1)
	c.Assert(fake.created[0].ExperimentId, gc.Equals, "7")
	c.Assert(fake.created[0].RunName, gc.Equals, "r1-PR-example-directed")
	c.Assert(fake.created[0].StartTime, gc.Equals, s.now.UnixMilli())
	tags := map[string]string{}
	for _, tag := range fake.created[0].Tags {
		tags[tag.Key] = tag.Value
	}
	c.Assert(tags, gc.DeepEquals, map[string]string{
		"algorithm":      "pr",
		"graph":          "example-directed",
		"platform":       "kgraphs",
		"mlflow.runName": "r1-PR-example-directed",
	})

	c.Assert(fake.params, gc.DeepEquals, []ml.LogParam{
		{RunId: "run-1", Key: "damping-factor", Value: "0.85"},
		{RunId: "run-1", Key: "num-iterations", Value: "10"},
		{RunId: "run-1", Key: "graph", Value: "example-directed"},
	})
	c.Assert(fake.metrics, gc.DeepEquals, []ml.LogMetric{
		{RunId: "run-1", Key: "processing_time", Value: 3.5, Timestamp: s.now.UnixMilli()},
		{RunId: "run-1", Key: "makespan", Value: 4.0, Timestamp: s.now.UnixMilli()},
	})

	data, err := os.ReadFile(filepath.Join(artifactRoot, "platform", "runner.logs"))
	c.Assert(err, gc.IsNil)
	c.Assert(string(data), gc.Equals, "Processing starts at: 1000\n")

	c.Assert(fake.updated, gc.HasLen, 1)
	c.Assert(fake.updated[0].Status, gc.Equals, ml.UpdateRunStatusFinished)
	c.Assert(fake.updated[0].EndTime, gc.Equals, s.now.UnixMilli())
}

func (s *MLflowTestSuite) TestReportFailedRun(c *gc.C) {
	fake := &fakeExperiments{}
	client := newClient(fake, &config.Config{}, "", http.DefaultClient, s.clk)
	reporter := NewReporter(client, ReporterConfig{ExperimentID: "7"})

	c.Assert(reporter.ReportRun(context.TODO(), s.spec, &models.BenchmarkMetrics{}, errors.New("engine crashed")), gc.IsNil)
	c.Assert(fake.metrics, gc.HasLen, 0)
	c.Assert(fake.updated[0].Status, gc.Equals, ml.UpdateRunStatusFailed)

	var note string
	for _, tag := range fake.created[0].Tags {
		if tag.Key == "mlflow.note.content" {
			note = tag.Value
		}
	}
	c.Assert(note, gc.Equals, "engine crashed")
}

func (s *MLflowTestSuite) TestReportStepFailureMarksRunFailed(c *gc.C) {
	fake := &fakeExperiments{paramErr: errors.New("boom")}
	client := newClient(fake, &config.Config{}, "", http.DefaultClient, s.clk)
	reporter := NewReporter(client, ReporterConfig{ExperimentID: "7"})

	err := reporter.ReportRun(context.TODO(), s.spec, nil, nil)
	c.Assert(err, gc.ErrorMatches, "(?s)failed to report run r1-PR-example-directed: .*failed to log parameter damping-factor: boom.*")
	c.Assert(fake.updated, gc.HasLen, 1)
	c.Assert(fake.updated[0].Status, gc.Equals, ml.UpdateRunStatusFailed)
}

func (s *MLflowTestSuite) TestUploadToArtifactProxy(c *gc.C) {
	s.writePlatformLog(c, "hello\n")

	var gotPath, gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer server.Close()

	client := newClient(&fakeExperiments{}, &config.Config{TrackingURI: server.URL + "/"}, "secret", server.Client(), s.clk)
	err := client.UploadArtifact(context.TODO(), "mlflow-artifacts:/3/abc123/artifacts", s.spec.PlatformLogFile(), "platform/runner.logs")
	c.Assert(err, gc.IsNil)
	c.Assert(gotPath, gc.Equals, "/api/2.0/mlflow-artifacts/artifacts/3/abc123/artifacts/platform/runner.logs")
	c.Assert(gotAuth, gc.Equals, "Bearer secret")
	c.Assert(gotBody, gc.Equals, "hello\n")
}

func (s *MLflowTestSuite) TestUploadToArtifactProxyFailure(c *gc.C) {
	s.writePlatformLog(c, "hello\n")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	client := newClient(&fakeExperiments{}, &config.Config{TrackingURI: server.URL}, "", server.Client(), s.clk)
	err := client.UploadArtifact(context.TODO(), "mlflow-artifacts:/3/abc123/artifacts", s.spec.PlatformLogFile(), "")
	c.Assert(err, gc.ErrorMatches, "(?s)MLflow Artifacts Service upload failed with status 403: denied.*")
}

func (s *MLflowTestSuite) TestUnsupportedArtifactScheme(c *gc.C) {
	client := newClient(&fakeExperiments{}, &config.Config{}, "", http.DefaultClient, s.clk)
	err := client.UploadArtifact(context.TODO(), "s3://bucket/artifacts", "/tmp/x", "")
	c.Assert(err, gc.ErrorMatches, "unsupported artifact URI scheme: s3://bucket/artifacts")
	c.Assert(errors.Is(err, ErrUnsupportedArtifactURI), gc.Equals, true)
}

func (s *MLflowTestSuite) TestUnsupportedArtifactSchemeKeepsRunFinished(c *gc.C) {
	s.writePlatformLog(c, "hello\n")
	fake := &fakeExperiments{artifactURI: "s3://bucket/artifacts"}
	client := newClient(fake, &config.Config{}, "", http.DefaultClient, s.clk)
	reporter := NewReporter(client, ReporterConfig{ExperimentID: "7"})

	c.Assert(reporter.ReportRun(context.TODO(), s.spec, &models.BenchmarkMetrics{}, nil), gc.IsNil)
	c.Assert(fake.updated, gc.HasLen, 1)
	c.Assert(fake.updated[0].Status, gc.Equals, ml.UpdateRunStatusFinished)
}

// databricksServer serves the credentials-for-write API and the signed URI
// it hands out.
type databricksServer struct {
	*httptest.Server

	credentialsAuth string
	credentialsReq  CredentialsForWriteRequest
	blobType        string
	uploaded        string
}

func newDatabricksServer(c *gc.C) *databricksServer {
	ds := &databricksServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/artifacts/credentials-for-write", func(w http.ResponseWriter, r *http.Request) {
		ds.credentialsAuth = r.Header.Get("Authorization")
		c.Check(json.NewDecoder(r.Body).Decode(&ds.credentialsReq), gc.IsNil)
		json.NewEncoder(w).Encode(CredentialsForWriteResponse{CredentialInfos: []ArtifactCredentialInfo{{
			RunID:     ds.credentialsReq.RunID,
			Path:      ds.credentialsReq.Path[0],
			SignedURI: ds.URL + "/signed/" + ds.credentialsReq.Path[0] + "?sig=abc",
			Headers:   []HTTPHeader{{Name: "x-ms-version", Value: "2021-08-06"}},
			Type:      "AZURE_SAS_URI",
		}}})
	})
	mux.HandleFunc("/signed/", func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, gc.Equals, http.MethodPut)
		c.Check(r.URL.Query().Get("sig"), gc.Equals, "abc")
		c.Check(r.Header.Get("x-ms-version"), gc.Equals, "2021-08-06")
		ds.blobType = r.Header.Get("x-ms-blob-type")
		body, _ := io.ReadAll(r.Body)
		ds.uploaded = string(body)
		w.WriteHeader(http.StatusCreated)
	})
	ds.Server = httptest.NewServer(mux)
	return ds
}

func (ds *databricksServer) client(experiments experimentsAPI, clk *testclock.Clock) *Client {
	client := newClient(experiments, &config.Config{TrackingURI: "databricks", ExperimentID: "7"}, "", ds.Client(), clk)
	client.workspace = &workspaceAPI{
		host: ds.URL,
		authenticate: func(r *http.Request) error {
			r.Header.Set("Authorization", "Bearer dapi-token")
			return nil
		},
	}
	return client
}

func (s *MLflowTestSuite) TestReportRunToDBFS(c *gc.C) {
	s.writePlatformLog(c, "Processing ends at: 2000\n")
	server := newDatabricksServer(c)
	defer server.Close()

	fake := &fakeExperiments{artifactURI: "dbfs:/databricks/mlflow-tracking/7/run-1/artifacts"}
	reporter := NewReporter(server.client(fake, s.clk), ReporterConfig{ExperimentID: "7"})

	c.Assert(reporter.ReportRun(context.TODO(), s.spec, &models.BenchmarkMetrics{}, nil), gc.IsNil)
	c.Assert(server.credentialsAuth, gc.Equals, "Bearer dapi-token")
	c.Assert(server.credentialsReq, gc.DeepEquals, CredentialsForWriteRequest{RunID: "run-1", Path: []string{"platform/runner.logs"}})
	c.Assert(server.blobType, gc.Equals, "BlockBlob")
	c.Assert(server.uploaded, gc.Equals, "Processing ends at: 2000\n")

	c.Assert(fake.updated, gc.HasLen, 1)
	c.Assert(fake.updated[0].Status, gc.Equals, ml.UpdateRunStatusFinished)
}

func (s *MLflowTestSuite) TestUploadToDBFSWithoutWorkspace(c *gc.C) {
	s.writePlatformLog(c, "hello\n")
	client := newClient(&fakeExperiments{}, &config.Config{}, "", http.DefaultClient, s.clk)
	err := client.UploadArtifact(context.TODO(), "dbfs:/databricks/mlflow-tracking/7/run-1/artifacts", s.spec.PlatformLogFile(), "")
	c.Assert(err, gc.ErrorMatches, "failed to get write credentials: DBFS artifacts require a Databricks tracking URI")
}

func (s *MLflowTestSuite) TestExtractRunIDFromDBFSURI(c *gc.C) {
	runID, err := extractRunIDFromDBFSURI("dbfs:/databricks/mlflow-tracking/7/0f3c9a/artifacts")
	c.Assert(err, gc.IsNil)
	c.Assert(runID, gc.Equals, "0f3c9a")

	_, err = extractRunIDFromDBFSURI("dbfs:/databricks/mlflow-tracking/7")
	c.Assert(err, gc.ErrorMatches, "run ID not found in DBFS URI: .*")

	_, err = extractRunIDFromDBFSURI("dbfs:/tmp/artifacts")
	c.Assert(err, gc.ErrorMatches, "invalid DBFS artifact URI format: dbfs:/tmp/artifacts")
}

func (s *MLflowTestSuite) TestExtractIDsFromArtifactURI(c *gc.C) {
	tests := []struct {
		uri        string
		experiment string
		run        string
		valid      bool
	}{
		{"mlflow-artifacts:/0/47485d6a0b734e37aaddc60be04b7371/artifacts", "0", "47485d6a0b734e37aaddc60be04b7371", true},
		{"mlflow-artifacts:/12/abc/artifacts/", "12", "abc", true},
		{"mlflow-artifacts:/0/abc", "", "", false},
		{"mlflow-artifacts:/", "", "", false},
	}
	for _, tt := range tests {
		experiment, run, err := extractIDsFromArtifactURI(tt.uri)
		if !tt.valid {
			c.Assert(err, gc.NotNil, gc.Commentf("uri: %s", tt.uri))
			continue
		}
		c.Assert(err, gc.IsNil, gc.Commentf("uri: %s", tt.uri))
		c.Assert(experiment, gc.Equals, tt.experiment)
		c.Assert(run, gc.Equals, tt.run)
	}
}

func (s *MLflowTestSuite) TestNewClientRequiresTracking(c *gc.C) {
	_, err := NewClient(&config.Config{TrackingURI: "http://localhost:5000"})
	c.Assert(err, gc.ErrorMatches, "invalid config: experiment ID must be specified.*")
}
