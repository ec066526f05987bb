// Package objectstore stores attachment blobs in an S3-compatible bucket (AWS S3, Cloudflare R2).
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"Inkwell/internal/core/media"
)

// objectAPI is the subset of the S3 client the store uses
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds bucket settings
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
	Prefix          string
}

// Store implements media.Store on an S3-compatible bucket
type Store struct {
	client    objectAPI
	bucket    string
	publicURL string
	prefix    string
}

// NewStore creates an S3-backed media store
func NewStore(cfg Config) (*Store, error) {
	if cfg.Bucket == "" || cfg.PublicURL == "" {
		return nil, errors.New("s3: bucket and public url are required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := s3.Options{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return newStore(s3.New(opts), cfg), nil
}

func newStore(client objectAPI, cfg Config) *Store {
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		prefix:    strings.Trim(cfg.Prefix, "/"),
	}
}

func (s *Store) key(publicID string) string {
	if s.prefix == "" {
		return publicID
	}
	return s.prefix + "/" + publicID
}

// Upload writes data under a fresh random key
func (s *Store) Upload(ctx context.Context, data []byte) (*media.Locator, error) {
	publicID := uuid.NewString()
	key := s.key(publicID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	})
	if err != nil {
		return nil, &media.UploadError{Err: fmt.Errorf("put object %s: %w", key, err)}
	}

	return &media.Locator{
		URL:      s.publicURL + "/" + key,
		PublicID: publicID,
	}, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, publicID string) error {
	key := s.key(publicID)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &media.DeleteError{PublicID: publicID, Err: fmt.Errorf("delete object %s: %w", key, err)}
	}
	return nil
}
