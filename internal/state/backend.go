package state

import (
	"context"
	"fmt"
)

// BackendConfig selects where the state file lives.
type BackendConfig struct {
	Type string   `mapstructure:"type" default:"local" validate:"oneof=local s3"`
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds configuration for the S3 backend.
type S3Config struct {
	Bucket   string `mapstructure:"bucket" default:""`
	Prefix   string `mapstructure:"prefix" default:""`
	Region   string `mapstructure:"region" default:"us-east-1"`
	Profile  string `mapstructure:"profile" default:""`
	Endpoint string `mapstructure:"endpoint" default:""`
	Encrypt  bool   `mapstructure:"encrypt" default:"false"`
}

// NewStore creates a state store from configuration. dir is the base
// directory of the local backend.
func NewStore(ctx context.Context, cfg *BackendConfig, dir string) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("backend configuration is nil")
	}

	switch cfg.Type {
	case "local", "":
		return NewLocalStore(dir), nil
	case "s3":
		return newS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}
