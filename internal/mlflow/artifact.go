package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const dbfsTrackingPrefix = "dbfs:/databricks/mlflow-tracking/"

// ErrUnsupportedArtifactURI is returned for artifact roots the client cannot
// write to.
var ErrUnsupportedArtifactURI = errors.New("unsupported artifact URI scheme")

// CredentialsForWriteRequest represents the request body of the Databricks
// credentials-for-write API.
type CredentialsForWriteRequest struct {
	RunID string   `json:"run_id"`
	Path  []string `json:"path"`
}

// CredentialsForWriteResponse represents the response from credentials-for-write API
type CredentialsForWriteResponse struct {
	CredentialInfos []ArtifactCredentialInfo `json:"credential_infos"`
}

// ArtifactCredentialInfo describes a signed URI an artifact can be written to.
type ArtifactCredentialInfo struct {
	RunID     string       `json:"run_id"`
	Path      string       `json:"path"`
	SignedURI string       `json:"signed_uri"`
	Headers   []HTTPHeader `json:"headers"`
	Type      string       `json:"type"`
}

type HTTPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UploadArtifact stores the file at filePath under artifactPath in the
// artifact root of a run. Runs backed by the MLflow artifact proxy
// (mlflow-artifacts:/), by Databricks managed storage (dbfs:/) and by a
// local directory (file:// or an absolute path) are supported.
func (c *Client) UploadArtifact(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	if artifactPath == "" {
		artifactPath = filepath.Base(filePath)
	}

	switch {
	case strings.HasPrefix(artifactURI, "mlflow-artifacts:/"):
		return c.uploadToMLflowArtifacts(ctx, artifactURI, filePath, artifactPath)
	case strings.HasPrefix(artifactURI, "dbfs:/"):
		return c.uploadToDBFS(ctx, artifactURI, filePath, artifactPath)
	case strings.HasPrefix(artifactURI, "file://"), strings.HasPrefix(artifactURI, "/"):
		return uploadToLocalFS(artifactURI, filePath, artifactPath)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedArtifactURI, artifactURI)
	}
}

func (c *Client) uploadToMLflowArtifacts(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	experimentID, runID, err := extractIDsFromArtifactURI(artifactURI)
	if err != nil {
		return fmt.Errorf("failed to extract IDs from artifact URI: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	url := fmt.Sprintf("%s/api/2.0/mlflow-artifacts/artifacts/%s/%s/artifacts/%s",
		strings.TrimSuffix(c.config.TrackingURI, "/"), experimentID, runID, path.Clean(filepath.ToSlash(artifactPath)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to MLflow Artifacts Service: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccessStatusCode(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("MLflow Artifacts Service upload failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// uploadToDBFS writes through a signed URI handed out by the Databricks
// artifacts API.
func (c *Client) uploadToDBFS(ctx context.Context, artifactURI, filePath, artifactPath string) error {
	runID, err := extractRunIDFromDBFSURI(artifactURI)
	if err != nil {
		return fmt.Errorf("failed to extract run ID from DBFS URI: %w", err)
	}

	credentials, err := c.getCredentialsForWrite(ctx, runID, []string{path.Clean(filepath.ToSlash(artifactPath))})
	if err != nil {
		return fmt.Errorf("failed to get write credentials: %w", err)
	}
	if len(credentials) == 0 {
		return fmt.Errorf("no credentials returned for path: %s", artifactPath)
	}

	if err := c.uploadToSignedURI(ctx, credentials[0], filePath); err != nil {
		return fmt.Errorf("failed to upload to %s signed URI: %w", credentials[0].Type, err)
	}
	return nil
}

// extractRunIDFromDBFSURI returns the run ID of an artifact root such as
// dbfs:/databricks/mlflow-tracking/{experiment_id}/{run_id}/artifacts.
func extractRunIDFromDBFSURI(artifactURI string) (string, error) {
	if !strings.HasPrefix(artifactURI, dbfsTrackingPrefix) {
		return "", fmt.Errorf("invalid DBFS artifact URI format: %s", artifactURI)
	}

	parts := strings.Split(strings.TrimPrefix(artifactURI, dbfsTrackingPrefix), "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("run ID not found in DBFS URI: %s", artifactURI)
	}
	return parts[1], nil
}

func (c *Client) getCredentialsForWrite(ctx context.Context, runID string, paths []string) ([]ArtifactCredentialInfo, error) {
	if c.workspace == nil {
		return nil, fmt.Errorf("DBFS artifacts require a Databricks tracking URI")
	}

	body, err := json.Marshal(CredentialsForWriteRequest{RunID: runID, Path: paths})
	if err != nil {
		return nil, err
	}
	url := strings.TrimSuffix(c.workspace.host, "/") + "/api/2.0/mlflow/artifacts/credentials-for-write"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.workspace.authenticate(req); err != nil {
		return nil, fmt.Errorf("failed to authenticate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credentials-for-write request failed: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccessStatusCode(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("credentials-for-write request failed with status %d: %s", resp.StatusCode, string(msg))
	}

	var response CredentialsForWriteResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode credentials-for-write response: %w", err)
	}
	return response.CredentialInfos, nil
}

func (c *Client) uploadToSignedURI(ctx context.Context, credential ArtifactCredentialInfo, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	req, err := createSignedURIRequest(ctx, credential, file, info.Size())
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to signed URI: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccessStatusCode(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("signed URI upload failed with status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// createSignedURIRequest builds the PUT request for the cloud store behind
// the credential.
func createSignedURIRequest(ctx context.Context, credential ArtifactCredentialInfo, body io.Reader, contentLength int64) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, credential.SignedURI, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Some cloud providers reject chunked uploads.
	req.ContentLength = contentLength
	req.Header.Set("Content-Type", "application/octet-stream")

	switch credential.Type {
	case "AWS_PRESIGNED_URL":
		req.Header.Del("Transfer-Encoding")
	case "AZURE_SAS_URI":
		req.Header.Set("x-ms-blob-type", "BlockBlob")
	}

	for _, header := range credential.Headers {
		req.Header.Set(header.Name, header.Value)
	}
	return req, nil
}

func isSuccessStatusCode(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func uploadToLocalFS(artifactURI, filePath, artifactPath string) error {
	dest := filepath.Join(strings.TrimPrefix(artifactURI, "file://"), artifactPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(dest), err)
	}

	src, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	return dst.Close()
}

// extractIDsFromArtifactURI splits a proxy artifact root such as
// mlflow-artifacts:/0/47485d6a0b734e37aaddc60be04b7371/artifacts into its
// experiment and run IDs.
func extractIDsFromArtifactURI(artifactURI string) (string, string, error) {
	trimmed := strings.Trim(strings.TrimPrefix(artifactURI, "mlflow-artifacts:"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid mlflow-artifacts URI format: %s", artifactURI)
	}
	return parts[0], parts[1], nil
}
