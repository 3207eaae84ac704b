package photo

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Store keeps profile photos in S3-compatible object storage.
type Store struct {
	cfg    Config
	client s3Client
}

// NewStore creates a photo store. If the config is incomplete the store is
// disabled and Enabled() reports false.
func NewStore(cfg Config) *Store {
	st := &Store{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		st.client = newS3Client(cfg)
	}
	return st
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether object storage is configured.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Upload stores a photo and returns its object key. Keys are namespaced by
// owner kind ("seniors" or "guardians") and id.
func (s *Store) Upload(ctx context.Context, kind string, ownerID int64, filename, contentType string, body io.Reader) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("photo storage not configured")
	}

	ext := path.Ext(filename)
	key := fmt.Sprintf("%s/%d/photo-%d%s", kind, ownerID, time.Now().UTC().Unix(), ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put photo: %w", err)
	}
	return key, nil
}

// Fetch returns the photo body and content type for a key. The caller must
// close the reader.
func (s *Store) Fetch(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !s.Enabled() {
		return nil, "", fmt.Errorf("photo storage not configured")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get photo: %w", err)
	}

	contentType := "application/octet-stream"
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete removes a photo. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return fmt.Errorf("photo storage not configured")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
