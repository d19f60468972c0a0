package main

import (
	"context"
	"fmt"

	"github.com/justapithecus/rasource/internal/config"
	"github.com/justapithecus/rasource/rasource"
	s3res "github.com/justapithecus/rasource/rasource/s3"
)

// buildResolver assembles the configured resource locations: directories
// in order, then S3. Returns nil when none are configured.
func buildResolver(ctx context.Context, cfg config.ResourcesConfig) (rasource.Resolver, error) {
	var resolvers []rasource.Resolver

	for _, dir := range cfg.Dirs {
		r, err := rasource.NewDirResolver(dir)
		if err != nil {
			return nil, fmt.Errorf("resource dir %s: %w", dir, err)
		}
		resolvers = append(resolvers, r)
	}

	if s := cfg.S3; s != nil {
		client, err := s3res.NewClient(ctx, s3res.ClientConfig{
			Region:          s.Region,
			Endpoint:        s.Endpoint,
			UsePathStyle:    s.PathStyle,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		r, err := s3res.New(client, s3res.Config{Bucket: s.Bucket, Prefix: s.Prefix})
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, r)
	}

	if len(resolvers) == 0 {
		return nil, nil
	}

	var resolver rasource.Resolver = rasource.NewChainResolver(resolvers...)
	if cfg.Decompress {
		resolver = rasource.NewCompressedResolver(resolver)
	}
	return resolver, nil
}
