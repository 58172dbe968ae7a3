package reports

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Archiver persists a generated report bundle somewhere durable.
type Archiver interface {
	Store(ctx context.Context, bundle *Bundle) (string, error)
}

// S3Config configures the S3 archiver. Empty credentials fall back to the
// SDK's default credential chain.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Archiver uploads report bundles to an S3 bucket, one object per file
// under the bundle's ID prefix.
type S3Archiver struct {
	uploader *manager.Uploader
	bucket   string
	log      zerolog.Logger
}

// NewS3Archiver creates an archiver bound to the configured bucket.
func NewS3Archiver(ctx context.Context, cfg S3Config, log zerolog.Logger) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &S3Archiver{
		uploader: manager.NewUploader(s3.NewFromConfig(awsCfg)),
		bucket:   cfg.Bucket,
		log:      log.With().Str("component", "report_archive").Logger(),
	}, nil
}

// Store uploads every file in the bundle and returns the common prefix.
func (a *S3Archiver) Store(ctx context.Context, bundle *Bundle) (string, error) {
	prefix := fmt.Sprintf("reports/%s/%s", bundle.GeneratedAt.Format("2006-01-02"), bundle.ID)

	for name, content := range bundle.Files {
		key := prefix + "/" + name
		_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(content),
			ContentType: aws.String(contentType(name)),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload %s: %w", key, err)
		}
	}

	a.log.Info().
		Str("bucket", a.bucket).
		Str("prefix", prefix).
		Int("files", len(bundle.Files)).
		Msg("Archived report bundle")

	return fmt.Sprintf("s3://%s/%s", a.bucket, prefix), nil
}

func contentType(name string) string {
	switch {
	case len(name) > 4 && name[len(name)-4:] == ".csv":
		return "text/csv"
	case len(name) > 4 && name[len(name)-4:] == ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
