// Package storage persists processed avatar images.
package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmarcu/contacts-api/internal/config"
)

// AvatarStore saves a processed avatar and returns the public URL recorded
// on the user record.
type AvatarStore interface {
	Save(ctx context.Context, filename string, data []byte, contentType string) (string, error)
}

// NewAvatarStore picks the backend from configuration: S3 when a bucket is
// set, local disk otherwise.
func NewAvatarStore(ctx context.Context, cfg config.Config) (AvatarStore, error) {
	if cfg.S3Bucket != "" {
		return NewS3Store(ctx, cfg)
	}
	return &LocalStore{Dir: cfg.AvatarDir}, nil
}

// LocalStore writes avatars to a directory served statically under /avatars.
type LocalStore struct{ Dir string }

func (s *LocalStore) Save(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.Dir, filename), data, 0o644); err != nil {
		return "", err
	}
	return "/avatars/" + filename, nil
}

// S3Store uploads avatars to an S3 bucket. The client is built once with
// static credentials; a custom base endpoint with path-style addressing
// covers MinIO-style deployments.
type S3Store struct {
	client *s3.Client
	bucket string
	base   string // public URL prefix for uploaded objects
}

func NewS3Store(ctx context.Context, cfg config.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	base := cfg.S3PublicURL
	if base == "" {
		base = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}
	return &S3Store{client: client, bucket: cfg.S3Bucket, base: base}, nil
}

func (s *S3Store) Save(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	key := "avatars/" + filename
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return s.base + "/" + key, nil
}
