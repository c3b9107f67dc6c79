// internal/publish/s3.go
// S3-compatible object store backend for sealed artifacts.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client uploads artifacts to an S3-compatible object store.
type S3Client struct {
	client *s3.Client // AWS S3 client
	bucket string     // Target bucket for artifacts
}

// NewS3 creates a new S3 publisher.
// It supports both AWS S3 and S3-compatible services like MinIO.
// Parameters:
//   - endpoint: S3 service endpoint URL, empty for AWS S3
//   - region: AWS region (or equivalent for S3-compatible services)
//   - bucket: S3 bucket name for artifact storage
//   - accessKey: Access key for authentication
//   - secretKey: Secret key for authentication
// Returns:
//   - *S3Client: Initialized S3 publisher
//   - error: Any error that occurred during initialization
func NewS3(endpoint, region, bucket, accessKey, secretKey string) (*S3Client, error) {
	// Load AWS configuration with custom endpoint and credentials
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		// Configure static credentials
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
				}, nil
			})),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client with path-style addressing for compatibility
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for MinIO and other S3-compatible services
	})

	return &S3Client{
		client: client,
		bucket: bucket,
	}, nil
}

// Publish uploads one artifact. Keys are date-prefixed so buckets stay
// browsable without an external index.
func (c *S3Client) Publish(ctx context.Context, name string, payload []byte) (*Result, error) {
	key := fmt.Sprintf("%s/%s", time.Now().UTC().Format("2006/01/02"), name)

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket), // Target S3 bucket
		Key:         aws.String(key),      // Object key in the bucket
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	return &Result{Reference: key}, nil
}
