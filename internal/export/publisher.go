// Package export publishes cohort reports to S3-compatible storage and hands
// out pre-signed download links. Without a configured bucket the
// NoopPublisher is used and reports are only served live.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fundnetwork/memberportal/internal/config"
)

// ErrNotConfigured is returned when report storage is not configured.
var ErrNotConfigured = errors.New("report storage not configured")

// Publisher stores the latest cohort report per survey year.
type Publisher interface {
	// Publish uploads report as the latest report of year.
	Publish(ctx context.Context, year int, report []byte) error

	// PresignedURL returns a time-limited download URL for the latest report
	// of year. Returns ErrNotConfigured when storage is not configured.
	PresignedURL(ctx context.Context, year int) (url string, expiry time.Time, err error)
}

// s3Client is the subset of *minio.Client the S3Publisher uses.
type s3Client interface {
	PutObject(ctx context.Context, bucket, objectName string, data []byte, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

type minioClient struct {
	client *minio.Client
}

func (m *minioClient) PutObject(ctx context.Context, bucket, objectName string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioClient) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return m.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Publisher uploads reports to S3-compatible storage.
type S3Publisher struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
	now       func() time.Time
}

// Publish uploads the report for year.
func (p *S3Publisher) Publish(ctx context.Context, year int, report []byte) error {
	if err := p.client.PutObject(ctx, p.bucket, objectKey(year), report, "application/json"); err != nil {
		return fmt.Errorf("upload report to S3: %w", err)
	}
	return nil
}

// PresignedURL returns a pre-signed GET URL for the latest report of year.
func (p *S3Publisher) PresignedURL(ctx context.Context, year int) (string, time.Time, error) {
	presigned, err := p.client.PresignedGetObject(ctx, p.bucket, objectKey(year), p.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	return presigned.String(), p.now().Add(p.urlExpiry), nil
}

// NoopPublisher is used when report storage is not configured.
type NoopPublisher struct{}

// Publish is a no-op when storage is not configured.
func (NoopPublisher) Publish(context.Context, int, []byte) error {
	return nil
}

// PresignedURL returns ErrNotConfigured.
func (NoopPublisher) PresignedURL(context.Context, int) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// New creates the Publisher matching cfg: NoopPublisher when the bucket is
// empty, S3Publisher otherwise.
func New(cfg config.ExportConfig) (Publisher, error) {
	if cfg.Bucket == "" {
		return NoopPublisher{}, nil
	}

	useSSL := cfg.SSL()
	endpoint := stripScheme(cfg.Endpoint, &useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Publisher{
		client:    &minioClient{client: client},
		bucket:    cfg.Bucket,
		urlExpiry: cfg.URLExpiry.Std(),
		now:       time.Now,
	}, nil
}

// stripScheme removes an http:// or https:// prefix from endpoint, which
// minio expects as a bare host. An explicit scheme overrides *ssl.
func stripScheme(endpoint string, ssl *bool) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		*ssl = true
		return strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		*ssl = false
		return strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}

// objectKey returns the object key of a year's latest report.
// Convention: reports/{year}/cohort-report.json
func objectKey(year int) string {
	return "reports/" + strconv.Itoa(year) + "/cohort-report.json"
}
