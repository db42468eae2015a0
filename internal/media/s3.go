// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
)

// S3Config describes the bucket and endpoint used for media.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS; set for MinIO or other S3-compatible stores
	AccessKey string
	SecretKey string

	// PublicBaseURL is the prefix returned to clients, e.g. a CDN origin.
	// When empty, a path-style URL on Endpoint (or AWS) is used.
	PublicBaseURL string

	// MaxBytes bounds a single object.
	MaxBytes int64
}

// objectAPI is the subset of *s3.Client used here.
type objectAPI interface {
	PutObject(context context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(context context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader implements [Uploader] on an S3-compatible bucket.
type S3Uploader struct {
	client   objectAPI
	bucket   string
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

// NewS3Uploader builds an S3 client from static credentials.
func NewS3Uploader(context context.Context, cfg S3Config) (*S3Uploader, error) {
	options := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(context, options...)
	if err != nil {
		return nil, fmt.Errorf("media: failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectAPI, cfg S3Config) *S3Uploader {
	return &S3Uploader{
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  publicBaseURL(cfg),
		maxBytes: cfg.MaxBytes,
		now:      time.Now,
	}
}

func publicBaseURL(cfg S3Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Upload implements [Uploader].
func (uploader *S3Uploader) Upload(context context.Context, object Object) (string, error) {
	if object.Body == nil {
		return "", apperr.ValidationError("Uploaded file is missing")
	}
	if uploader.maxBytes > 0 && object.Size > uploader.maxBytes {
		return "", apperr.ValidationError(fmt.Sprintf("Uploaded file exceeds %d bytes", uploader.maxBytes))
	}

	contentType, body, err := sniff(object.Body)
	if err != nil {
		return "", err
	}

	extension, allowed := allowedTypes[contentType]
	if !allowed {
		return "", apperr.ValidationError("Only JPEG, PNG, GIF and WebP images are accepted")
	}

	key := objectKey(object.Prefix, uploader.now().UTC(), extension)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(uploader.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if object.Size > 0 {
		input.ContentLength = aws.Int64(object.Size)
	}

	if _, err := uploader.client.PutObject(context, input); err != nil {
		return "", fmt.Errorf("media: put object failed: %w", err)
	}

	return uploader.baseURL + "/" + key, nil
}

// Delete implements [Uploader]. URLs outside this bucket are rejected.
func (uploader *S3Uploader) Delete(context context.Context, url string) error {
	key, found := strings.CutPrefix(url, uploader.baseURL+"/")
	if !found || key == "" {
		return fmt.Errorf("media: %q is not an object of bucket %s", url, uploader.bucket)
	}

	if _, err := uploader.client.DeleteObject(context, &s3.DeleteObjectInput{
		Bucket: aws.String(uploader.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("media: delete object failed: %w", err)
	}

	return nil
}
