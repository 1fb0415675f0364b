package source

import (
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config locates a bucket on S3 or any S3-compatible store.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3 fetches documents stored as objects under a key prefix.
type S3 struct {
	client   *minio.Client
	bucket   string
	prefix   string
	maxBytes int64
}

func NewS3(cfg S3Config, maxBytes int64) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		maxBytes: maxBytes,
	}, nil
}

func (s *S3) Fetch(ctx context.Context, page string) ([]byte, error) {
	name, err := CleanPage(page)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(s.prefix, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap(page, err)
	}
	defer obj.Close()

	// A missing key only surfaces on the first read.
	data, err := readLimited(obj, s.maxBytes)
	if err != nil {
		return nil, s.wrap(page, err)
	}
	return data, nil
}

func (s *S3) wrap(page string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", page, ErrNotFound)
	}
	return fmt.Errorf("get object %s: %w", page, err)
}

func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
