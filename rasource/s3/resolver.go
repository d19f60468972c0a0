// Package s3 resolves rasource resources from an S3-compatible object store.
//
// It works with AWS S3, MinIO, LocalStack, Cloudflare R2 and other
// S3-compatible services. Objects are fetched with a single GetObject call;
// the factory then reads the body into memory.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/justapithecus/rasource/internal/streamutil"
	"github.com/justapithecus/rasource/rasource"
)

// API defines the subset of the S3 client interface used by the resolver.
// This enables testing with mock implementations.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds configuration for the S3 resolver.
type Config struct {
	// Bucket is the S3 bucket name. Required.
	Bucket string

	// Prefix is an optional key prefix for all lookups.
	// If set, resource names are resolved under this prefix (with a trailing
	// slash added if missing).
	Prefix string
}

// Resolver implements rasource.Resolver using an S3-compatible backend.
type Resolver struct {
	client API
	bucket string
	prefix string
}

var _ rasource.Resolver = (*Resolver)(nil)

// New creates a new S3 resolver with the given client and configuration.
//
// The client must be pre-configured with credentials, region, and endpoint.
// Use NewClient or github.com/aws/aws-sdk-go-v2/config to build one.
//
// Example:
//
//	client, err := s3res.NewClient(ctx, s3res.ClientConfig{Region: "us-east-1"})
//	resolver, err := s3res.New(client, s3res.Config{Bucket: "fonts"})
//	factory := rasource.NewFactory(rasource.Config{Resolver: resolver})
func New(client API, cfg Config) (*Resolver, error) {
	if client == nil {
		return nil, errors.New("s3: client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Resolver{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

// Resolve opens the object named by name under the configured prefix.
// Returns rasource.ErrNotFound for missing objects or buckets.
// Returns rasource.ErrInvalidName for empty or escaping names.
func (r *Resolver) Resolve(ctx context.Context, name string) (io.ReadCloser, error) {
	fullKey, err := r.validateKey(name)
	if err != nil {
		return nil, err
	}

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, rasource.ErrNotFound
		}
		return nil, fmt.Errorf("s3: get object: %w", err)
	}

	if n := aws.ToInt64(out.ContentLength); n > 0 {
		return &streamutil.Sized{ReadCloser: out.Body, N: n}, nil
	}
	return out.Body, nil
}

// validateKey validates and returns the full key for a resource name.
func (r *Resolver) validateKey(name string) (string, error) {
	if name == "" {
		return "", rasource.ErrInvalidName
	}

	// Remove leading slash, then normalize
	cleaned := path.Clean(strings.TrimLeft(name, "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", rasource.ErrInvalidName
	}

	return r.prefix + cleaned, nil
}

// isNotFound reports whether err means the object does not exist.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return false
}
