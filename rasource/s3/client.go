package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig describes the object store that holds the resources.
type ClientConfig struct {
	// Region of the bucket. Required; "auto" for R2.
	Region string

	// Endpoint overrides the AWS endpoint, e.g. "http://localhost:9000" for
	// a local MinIO holding test fonts.
	Endpoint string

	// UsePathStyle addresses the bucket as a path segment.
	UsePathStyle bool

	// AccessKeyID and SecretAccessKey are static read credentials. Leave
	// AccessKeyID empty to use the SDK's default chain (environment,
	// shared profile, instance role).
	AccessKeyID     string
	SecretAccessKey string
}

// NewClient builds a client suitable for New from cfg.
//
// A read-only resource bucket on MinIO:
//
//	client, err := s3res.NewClient(ctx, s3res.ClientConfig{
//	    Region:          "us-east-1",
//	    Endpoint:        "http://localhost:9000",
//	    UsePathStyle:    true,
//	    AccessKeyID:     "reader",
//	    SecretAccessKey: "reader-secret",
//	})
//	resolver, err := s3res.New(client, s3res.Config{Bucket: "pdf-resources"})
func NewClient(ctx context.Context, cfg ClientConfig) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, cfg.loadOptions()...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, cfg.serviceOptions), nil
}

// loadOptions returns the shared-config options: region and, when given,
// static credentials.
func (cfg ClientConfig) loadOptions() []func(*config.LoadOptions) error {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID == "" {
		return opts
	}
	provider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	return append(opts, config.WithCredentialsProvider(provider))
}

// serviceOptions applies the endpoint and addressing settings.
func (cfg ClientConfig) serviceOptions(o *s3.Options) {
	if cfg.Endpoint != "" {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	o.UsePathStyle = cfg.UsePathStyle
}
