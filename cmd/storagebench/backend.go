package main

import (
	"context"
	"fmt"
	"time"

	"storagebench/config"
	"storagebench/storage"
)

// newBackend builds the storage backend a provider's configuration selects.
// The choice is made once here; everything downstream works against the
// capability contract.
func newBackend(ctx context.Context, p config.ProviderConfig, cfg *config.Config) (storage.Backend, error) {
	switch p.Type {
	case "s3":
		return storage.NewS3Backend(ctx, storage.S3Options{
			Endpoint:   p.Endpoint,
			AccessKey:  p.AccessKey,
			SecretKey:  p.SecretKey,
			Bucket:     p.Bucket,
			Region:     p.Region,
			MaxRetries: cfg.Benchmark.MaxRetries,
			Timeout:    time.Duration(cfg.Benchmark.TimeoutSeconds) * time.Second,
		})
	case "local":
		return storage.NewLocalBackend(p.BasePath)
	}
	return nil, fmt.Errorf("provider %q has unknown type %q", p.Name, p.Type)
}

// resolveProviders turns --provider flags into validated provider configs,
// defaulting to every enabled provider.
func resolveProviders(cfg *config.Config, names []string) ([]config.ProviderConfig, error) {
	var providers []config.ProviderConfig
	if len(names) > 0 {
		for _, name := range names {
			p, ok := cfg.Provider(name)
			if !ok {
				return nil, fmt.Errorf("provider %q not found in config", name)
			}
			providers = append(providers, p)
		}
	} else {
		providers = cfg.EnabledProviders()
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}
	for _, p := range providers {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
	}
	return providers, nil
}
