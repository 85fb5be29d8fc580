// Package storage uploads narration artifacts to the shared bucket so the
// document service can reference them by URL.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	apperrors "slidesmith/pkg/errors"
)

// S3Store implements the object store port on top of S3.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
	region string
	logger *zap.Logger
}

// NewS3Store builds the uploader from the ambient AWS credential chain. An
// empty bucket is allowed at construction time so local runs without uploads
// still start; Upload fails with a distinct quota error instead.
func NewS3Store(ctx context.Context, region, bucket, prefix string, logger *zap.Logger) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, apperrors.Wrap(err, "loading AWS config")
	}
	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		region: region,
		logger: logger,
	}, nil
}

// Upload stores the object and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.bucket == "" {
		return "", apperrors.NewStorageQuotaError(
			"no shared storage bucket configured, narration uploads have nowhere to land")
	}

	fullKey := key
	if s.prefix != "" {
		fullKey = path.Join(s.prefix, key)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", apperrors.NewExternalError("s3", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, fullKey)
	s.logger.Debug("object uploaded",
		zap.String("key", fullKey),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}
