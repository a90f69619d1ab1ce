// Copyright (c) 2026 Pulse. All rights reserved.
// Author: dev@pulse.app

/*
Package media provides presigned object-storage access for user uploads.

Images referenced by posts and profiles are never proxied through the API
server. Instead, clients receive short-lived presigned URLs and talk to the
S3-compatible store (Cloudflare R2, MinIO, AWS S3) directly.

Core Responsibilities:

  - Upload authorization: Issue presigned PUT URLs bound to a generated key.
  - Read access: Issue presigned GET URLs for private objects.
  - Key hygiene: Storage keys are server-generated and unguessable.
*/
package media

import (
	stdctx "context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pulseapp/pulse/internal/platform/config"
	"github.com/pulseapp/pulse/pkg/uuidv7"
)

// presignExpiry is the lifetime of issued presigned URLs.
const presignExpiry = 15 * time.Minute

// Storage issues presigned URLs against a single configured bucket.
type Storage struct {
	presignClient *s3.PresignClient
	bucket        string
}

// Upload is an authorization for a client to PUT one object.
type Upload struct {
	// Key is the server-generated storage key the client must not alter.
	Key string
	// URL is the presigned PUT URL, valid for a short window.
	URL string
}

// NewStorage builds the S3 client and presigner from application config.
//
// # Parameters
//   - context: Context for SDK configuration loading.
//   - cfg: Application configuration carrying the S3 settings.
func NewStorage(context stdctx.Context, cfg *config.Config) (*Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("media: failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		if cfg.S3Endpoint != "" {
			options.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		// R2 and MinIO require path-style addressing.
		options.UsePathStyle = true
	})

	return &Storage{
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.S3Bucket,
	}, nil
}

// PresignUpload issues a presigned PUT URL for a new object.
//
// The storage key is generated server-side and partitioned by user so that
// ownership is recoverable from the key alone.
func (storage *Storage) PresignUpload(context stdctx.Context, userID string, contentType string) (*Upload, error) {
	key := fmt.Sprintf("uploads/%s/%s", userID, uuidv7.Must())

	input := &s3.PutObjectInput{
		Bucket: aws.String(storage.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	request, err := storage.presignClient.PresignPutObject(context, input,
		s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("media: presign put failed: %w", err)
	}

	return &Upload{Key: key, URL: request.URL}, nil
}

// PresignDownload issues a presigned GET URL for an existing object.
func (storage *Storage) PresignDownload(context stdctx.Context, key string) (string, error) {
	request, err := storage.presignClient.PresignGetObject(context, &s3.GetObjectInput{
		Bucket: aws.String(storage.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("media: presign get failed: %w", err)
	}

	return request.URL, nil
}
