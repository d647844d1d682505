// Package storage implements the object-storage collaborator for uploaded
// media: it accepts a byte buffer plus content type and returns a publicly
// retrievable URL. Articles reference the URL; the core never reads the
// bytes back.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Uploader stores a blob and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType, filename string) (string, error)
}

// S3Uploader stores uploads under the "uploads/" prefix of one S3 bucket.
type S3Uploader struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3 builds an S3Uploader using the default AWS credential chain.
func NewS3(ctx context.Context, bucket, region string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// Upload writes data to a generated object key and returns the public URL.
// The key embeds a timestamp and random suffix so names never collide; the
// extension is carried over from the original filename.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "png"
	}
	key := fmt.Sprintf("uploads/%d-%s.%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}

var _ Uploader = (*S3Uploader)(nil)
