package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ikkim/handmade-storefront/pkg/logger"
)

// ObjectPutter is the part of *s3.Client the archive needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReceiptArchive keeps a copy of every rendered order confirmation in S3
type ReceiptArchive struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

func NewReceiptArchive(client ObjectPutter, bucket, prefix string) *ReceiptArchive {
	return &ReceiptArchive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// NewS3Client builds an S3 client. Static credentials are used when given,
// otherwise the default credential chain.
func NewS3Client(ctx context.Context, region, accessKeyID, secretAccessKey string) (*s3.Client, error) {
	if accessKeyID != "" && secretAccessKey != "" {
		cfg := aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
		return s3.NewFromConfig(cfg), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Store writes one receipt and returns its object key:
// <prefix>/<yyyy>/<mm>/order-<orderID>-<uuid>.html
func (a *ReceiptArchive) Store(ctx context.Context, orderID string, html []byte) (string, error) {
	now := a.now().UTC()
	key := fmt.Sprintf("%s/order-%s-%s.html", now.Format("2006/01"), orderID, uuid.NewString())
	if a.prefix != "" {
		key = a.prefix + "/" + key
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(html),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata: map[string]string{
			"order-id": orderID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}

	logger.Debug("Receipt archived", map[string]interface{}{
		"bucket":   a.bucket,
		"key":      key,
		"order_id": orderID,
	})
	return key, nil
}
