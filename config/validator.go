package config

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// Validate checks the configuration for values the client would reject.
func (c *Config) Validate() error {
	switch c.Backend {
	case uploadtypes.BackendS3, "":
	case uploadtypes.BackendMinio:
		if c.Endpoint == "" {
			return invalid("the minio backend requires an endpoint")
		}
	default:
		return invalid(fmt.Sprintf("unknown backend %q", c.Backend))
	}

	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return invalid("access_key_id and secret_access_key must be set together")
	}
	if c.MaxRetries < 0 {
		return invalid("max_retries cannot be negative")
	}
	if c.Timeout < 0 {
		return invalid("timeout cannot be negative")
	}
	if c.Upload.VerifyAttempts < 0 {
		return invalid("verify_attempts cannot be negative")
	}
	if c.DefaultBucket != "" {
		if err := validation.ValidateBucketName(c.DefaultBucket); err != nil {
			return errors.NewKindError("validateConfig", errors.ErrInvalidConfig, err)
		}
	}

	return validation.ValidateLimits(c.Limits())
}

func invalid(message string) error {
	return errors.NewKindError("validateConfig", errors.ErrInvalidConfig, nil).WithMessage(message)
}
