// Package storage reads and writes file objects in a single S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrNotFound is returned by Read when the bucket holds no object for the key.
var ErrNotFound = errors.New("storage: object not found")

// s3API is the minimal S3 interface required by Client.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ReadWriter defines the object operations consumed by the file service.
type ReadWriter interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Read(ctx context.Context, key string) ([]byte, error)
}

var _ ReadWriter = (*Client)(nil)

// Client wraps one S3 bucket.
type Client struct {
	api        s3API
	bucketName string
}

// New creates a storage Client for bucketName.
func New(api s3API, bucketName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("storage: api must not be nil")
	}
	if strings.TrimSpace(bucketName) == "" {
		return nil, errors.New("storage: bucket name must not be empty")
	}
	return &Client{api: api, bucketName: bucketName}, nil
}

// Bucket returns the bucket this client writes to.
func (c *Client) Bucket() string {
	return c.bucketName
}

// Upload stores body under key in a single PutObject call. Content type
// validation is the caller's job.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := c.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("storage: put object %q: %w", key, err)
	}
	return nil
}

// Read returns the full contents of the object stored under key, or
// ErrNotFound when no such key exists.
func (c *Client) Read(ctx context.Context, key string) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: get object %q: %w", key, err)
	}
	if out == nil || out.Body == nil {
		return nil, fmt.Errorf("storage: get object %q: empty body", key)
	}
	defer func() { _ = out.Body.Close() }()

	buf, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read object %q: %w", key, err)
	}
	return buf, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
