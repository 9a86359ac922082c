// Package archive copies the logs and metrics of benchmark runs to an
// S3-compatible object store.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/imishinist/graphalytics-kgraphs/internal/config"
	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

// ObjectStore is the subset of the minio client used by the Uploader.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Summary is stored as metrics.json next to the archived logs.
type Summary struct {
	Run       string                   `json:"run"`
	Algorithm models.Algorithm         `json:"algorithm"`
	Graph     string                   `json:"graph"`
	Status    models.RunStatus         `json:"status"`
	Error     string                   `json:"error,omitempty"`
	Metrics   *models.BenchmarkMetrics `json:"metrics"`
}

// Uploader archives run artifacts under <bucket>/<prefix>/<run name>/.
type Uploader struct {
	store  ObjectStore
	bucket string
	prefix string
	logger *logrus.Entry
}

// New connects to the object store described by cfg.
func New(cfg config.ArchiveConfig, logger *logrus.Entry) (*Uploader, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%s has not been specified", config.KeyArchiveEndpoint)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return NewWithStore(client, cfg, logger)
}

// NewWithStore returns an Uploader writing through store.
func NewWithStore(store ObjectStore, cfg config.ArchiveConfig, logger *logrus.Entry) (*Uploader, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%s has not been specified", config.KeyArchiveBucket)
	}
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return &Uploader{
		store:  store,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

// CheckBucket fails if the archive bucket does not exist.
func (u *Uploader) CheckBucket(ctx context.Context) error {
	exists, err := u.store.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("archive bucket exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("archive bucket missing: %s", u.bucket)
	}
	return nil
}

// ReportRun uploads every file under the platform log directory of the run
// followed by a metrics.json summary. All files are attempted even if some
// of them fail.
func (u *Uploader) ReportRun(ctx context.Context, spec models.RunSpecification, metrics *models.BenchmarkMetrics, runErr error) error {
	runName := spec.Run.Name()
	logDir := spec.PlatformLogDir()

	var errs error
	walkErr := filepath.WalkDir(logDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == logDir {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(logDir, p)
		if err != nil {
			return err
		}
		if err := u.putFile(ctx, objectKey(u.prefix, runName, "platform", rel), p); err != nil {
			errs = multierror.Append(errs, err)
		}
		return nil
	})
	if walkErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to walk %s: %w", logDir, walkErr))
	}

	summary := Summary{
		Run:       runName,
		Algorithm: spec.Run.Algorithm(),
		Graph:     spec.Run.GraphName,
		Status:    models.StatusOf(runErr),
		Metrics:   metrics,
	}
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	if err := u.putSummary(ctx, objectKey(u.prefix, runName, "metrics.json"), summary); err != nil {
		errs = multierror.Append(errs, err)
	}

	if errs != nil {
		return fmt.Errorf("failed to archive run %s: %w", runName, errs)
	}
	u.logger.WithFields(logrus.Fields{
		"run":    runName,
		"bucket": u.bucket,
	}).Info("archived run")
	return nil
}

func (u *Uploader) putFile(ctx context.Context, key, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", p, err)
	}
	opts := minio.PutObjectOptions{ContentType: "text/plain"}
	if _, err := u.store.PutObject(ctx, u.bucket, key, f, info.Size(), opts); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (u *Uploader) putSummary(ctx context.Context, key string, summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	opts := minio.PutObjectOptions{ContentType: "application/json"}
	if _, err := u.store.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func objectKey(prefix, runName string, elem ...string) string {
	parts := append([]string{prefix, runName}, elem...)
	for i := range parts {
		parts[i] = filepath.ToSlash(parts[i])
	}
	return path.Join(parts...)
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
