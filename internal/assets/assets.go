// Package assets talks to the external asset host that stores uploaded
// images. Uploads return a retrievable URL plus an asset id; deletes take the
// asset id. Raw image bytes are never persisted locally.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"sociogram/internal/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Asset identifies a stored image on the asset host.
type Asset struct {
	URL string
	ID  string
}

// Store is the asset-host client used by registration and post creation.
type Store interface {
	Upload(ctx context.Context, img *Image) (Asset, error)
	Delete(ctx context.Context, assetID string) error
}

// S3Store implements Store on an S3 (or S3-compatible) bucket.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	region   string
	baseURL  string
}

// NewS3Store builds an S3-backed asset store. baseURL overrides the public
// URL prefix for S3-compatible hosts; leave empty for AWS.
func NewS3Store(ctx context.Context, region, bucket, baseURL string) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		region:   region,
		baseURL:  baseURL,
	}, nil
}

// Upload stores a normalized image and returns its public URL and asset id.
func (s *S3Store) Upload(ctx context.Context, img *Image) (Asset, error) {
	key := fmt.Sprintf("images/%s%s", uuid.New().String(), img.Extension())

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		observability.AssetHostOps.WithLabelValues("upload", "error").Inc()
		return Asset{}, fmt.Errorf("asset upload failed: %w", err)
	}

	observability.AssetHostOps.WithLabelValues("upload", "ok").Inc()
	observability.AssetUploadBytes.Observe(float64(len(img.Data)))

	return Asset{URL: s.publicURL(key), ID: key}, nil
}

// Delete releases the asset with the given id.
func (s *S3Store) Delete(ctx context.Context, assetID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		observability.AssetHostOps.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("asset delete failed: %w", err)
	}
	observability.AssetHostOps.WithLabelValues("delete", "ok").Inc()
	return nil
}

// publicURL builds the retrievable URL for a key. Keys are generated from
// UUIDs so no escaping is needed.
func (s *S3Store) publicURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.baseURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
