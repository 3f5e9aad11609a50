// Package objectstore publishes restored archives to S3-compatible storage
// and hands out short-lived download links.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/strongholder/internal/common"
	"github.com/google/uuid"
)

// DefaultLinkTTL is how long a published download link stays usable.
const DefaultLinkTTL = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config selects the bucket and the credentials used to reach it.
type Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	linkTTL time.Duration
}

// New builds a Store with static credentials against cfg.BaseEndpoint.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.User,
			cfg.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
		// restored archives are streamed, so no checksum can be computed upfront
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &Store{
		client:  client,
		presign: newS3PresignClient(client),
		bucket:  cfg.Bucket,
		linkTTL: DefaultLinkTTL,
	}, nil
}

// RestoreKey is the object key for a restore export of userID.
func RestoreKey(userID string) string {
	return fmt.Sprintf("restores/%s/%s.tar.gz", userID, uuid.New())
}

// Publish uploads size bytes from body under key and returns a presigned
// GET URL valid for the store's link TTL.
func (s *Store) Publish(ctx context.Context, key string, body io.Reader, size int64) (string, error) {
	_, err := putObject(s.client, ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/gzip"),
	}, s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware))
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %w", common.ErrExport, key, err)
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.linkTTL))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %w", common.ErrExport, key, err)
	}
	return req.URL, nil
}
