package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader copies finished workbooks to an S3-compatible bucket.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Uploader creates an uploader. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar).
func NewS3Uploader(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Uploader{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Key returns the object key for a local workbook path.
func (u *S3Uploader) Key(localPath string) string {
	name := filepath.Base(localPath)
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload puts the file at localPath into the bucket and returns its s3:// URI.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read workbook: %w", err)
	}

	key := u.Key(localPath)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
