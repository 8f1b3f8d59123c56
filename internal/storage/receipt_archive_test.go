package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	data, _ := io.ReadAll(params.Body)
	f.body = string(data)
	return &s3.PutObjectOutput{}, nil
}

func TestReceiptArchive_Store(t *testing.T) {
	putter := &fakePutter{}
	archive := NewReceiptArchive(putter, "shop-receipts", "/receipts/")
	archive.now = func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }

	key, err := archive.Store(context.Background(), "42", []byte("<p>receipt</p>"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "receipts/2026/03/order-42-"), key)
	assert.True(t, strings.HasSuffix(key, ".html"), key)
	assert.Equal(t, "shop-receipts", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))
	assert.Equal(t, "text/html; charset=utf-8", aws.ToString(putter.input.ContentType))
	assert.Equal(t, "42", putter.input.Metadata["order-id"])
	assert.Equal(t, "<p>receipt</p>", putter.body)
}

func TestReceiptArchive_StoreError(t *testing.T) {
	archive := NewReceiptArchive(&fakePutter{err: errors.New("access denied")}, "b", "")

	_, err := archive.Store(context.Background(), "42", []byte("x"))
	assert.ErrorContains(t, err, "access denied")
}
