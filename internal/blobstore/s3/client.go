// Package s3 is the S3 compatible object client behind the blob store
// (AWS S3 or MinIO, one bucket).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/y0lz/backend-json/internal/apperr"
	"github.com/y0lz/backend-json/internal/blobstore"
)

const contentType = "application/json"

// Config holds explicit construction parameters. Empty credentials fall back
// to the default AWS chain.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Client implements blobstore.ObjectStore.
type Client struct {
	api    *s3.Client
	bucket string
}

// New creates a client from cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required: %w", apperr.ErrInvalid)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Client{api: api, bucket: cfg.Bucket}, nil
}

// Get implements blobstore.ObjectStore.
func (c *Client) Get(ctx context.Context, key string) (blobstore.Object, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{Bucket: &c.bucket, Key: &key})
	if err != nil {
		return blobstore.Object{}, mapError("get", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return blobstore.Object{}, fmt.Errorf("s3 get %s: %w: %w", key, apperr.ErrConnectionUnavailable, err)
	}
	return blobstore.Object{Body: body, ETag: aws.ToString(out.ETag)}, nil
}

// Put implements blobstore.ObjectStore.
func (c *Client) Put(ctx context.Context, key string, body []byte, ifMatch string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if ifMatch != "" {
		input.IfMatch = aws.String(ifMatch)
	} else {
		input.IfNoneMatch = aws.String("*")
	}
	out, err := c.api.PutObject(ctx, input)
	if err != nil {
		return "", mapError("put", key, err)
	}
	return aws.ToString(out.ETag), nil
}

// Ping checks the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.bucket}); err != nil {
		return mapError("head bucket", c.bucket, err)
	}
	return nil
}

func mapError(op, key string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("s3 %s %s: %w", op, key, err)
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("s3 %s %s: %w", op, key, apperr.ErrNotFound)
	}
	// Транспортные ошибки SDK тоже приходят как ResponseError, но со статусом 0.
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		switch re.HTTPStatusCode() {
		case http.StatusNotFound:
			switch op {
			case "head bucket":
				return fmt.Errorf("s3 bucket %s: %w: %w", key, apperr.ErrBackendUnavailable, err)
			case "put":
				// If-Match against a key that was removed meanwhile.
				return fmt.Errorf("s3 %s %s: %w", op, key, apperr.ErrConcurrentModification)
			}
			return fmt.Errorf("s3 %s %s: %w", op, key, apperr.ErrNotFound)
		case http.StatusPreconditionFailed, http.StatusConflict:
			return fmt.Errorf("s3 %s %s: %w", op, key, apperr.ErrConcurrentModification)
		}
	}
	return fmt.Errorf("s3 %s %s: %w: %w", op, key, apperr.ErrConnectionUnavailable, err)
}

var _ blobstore.ObjectStore = (*Client)(nil)
