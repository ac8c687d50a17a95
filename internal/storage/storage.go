// Package storage provides S3-compatible object storage for task attachments.
// It hands out presigned URLs so file bytes never pass through the API.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appconfig "tasklist/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrNotConfigured is returned by New when no endpoint is set
var ErrNotConfigured = errors.New("object storage is not configured")

// Service defines the interface for storage operations
type Service interface {
	// GeneratePresignedUploadURL creates a time-limited presigned URL for uploading a file
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a time-limited presigned URL for downloading a file
	GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Health checks if the storage service is accessible
	Health(ctx context.Context) error
}

type service struct {
	client          *s3.Client
	publicPresigner *s3.PresignClient
	bucketName      string
}

// New creates the storage service and makes sure the bucket exists
func New(ctx context.Context, cfg appconfig.S3Config) (Service, error) {
	s, err := newService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := s.ensureBucketExists(ctx); err != nil {
		slog.Warn("Failed to ensure bucket exists", "bucket", cfg.Bucket, "error", err)
	}

	return s, nil
}

func newService(ctx context.Context, cfg appconfig.S3Config) (*service, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newClient(awsCfg, endpointURL(cfg.Endpoint, cfg.UseSSL))

	// presigned URLs are handed to browsers, so sign them for the public host when there is one
	publicPresigner := s3.NewPresignClient(client)
	if cfg.PublicEndpoint != "" && cfg.PublicEndpoint != cfg.Endpoint {
		publicPresigner = s3.NewPresignClient(newClient(awsCfg, endpointURL(cfg.PublicEndpoint, cfg.UseSSL)))
	}

	return &service{
		client:          client,
		publicPresigner: publicPresigner,
		bucketName:      cfg.Bucket,
	}, nil
}

// newClient builds a path-style client, which MinIO requires
func newClient(awsCfg aws.Config, baseEndpoint string) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseEndpoint)
		o.UsePathStyle = true
	})
}

func endpointURL(host string, useSSL bool) string {
	if useSSL {
		return "https://" + host
	}
	return "http://" + host
}

func (s *service) ensureBucketExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	slog.Info("Created S3 bucket", "bucket", s.bucketName)
	return nil
}

// GeneratePresignedUploadURL creates a presigned URL for uploading
func (s *service) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file key cannot be empty")
	}
	if contentType == "" {
		return "", fmt.Errorf("content type cannot be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("TTL must be positive")
	}

	request, err := s.publicPresigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned upload URL for key %s: %w", key, err)
	}

	return request.URL, nil
}

// GeneratePresignedDownloadURL creates a presigned URL for downloading
func (s *service) GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file key cannot be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("TTL must be positive")
	}

	request, err := s.publicPresigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL for key %s: %w", key, err)
	}

	return request.URL, nil
}

// Health checks if the storage service is accessible
func (s *service) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
