package config

import (
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// Options converts the configuration into client options. Unset fields leave
// the client defaults in place.
func (c *Config) Options() []uploadtypes.Option {
	opts := []uploadtypes.Option{
		chunkupload.WithPartSize(int64(c.Upload.PartSize)),
		chunkupload.WithMaxPartSize(int64(c.Upload.MaxPartSize)),
		chunkupload.WithMaxObjectSize(int64(c.Upload.MaxObjectSize)),
		chunkupload.WithMaxPartCount(c.Upload.MaxPartCount),
		chunkupload.WithQueueSize(c.Upload.QueueSize),
		chunkupload.WithCleanupVerifyAttempts(c.Upload.VerifyAttempts, c.Upload.VerifyInterval),
	}

	if c.Backend != "" {
		opts = append(opts, chunkupload.WithBackend(c.Backend))
	}
	if c.Region != "" {
		opts = append(opts, chunkupload.WithRegion(c.Region))
	}
	if c.Endpoint != "" {
		opts = append(opts, chunkupload.WithEndpoint(c.Endpoint))
	}
	if c.ForcePathStyle {
		opts = append(opts, chunkupload.WithForcePathStyle(true))
	}
	if c.DisableSSL {
		opts = append(opts, chunkupload.WithDisableSSL(true))
	}
	if c.AccessKeyID != "" {
		opts = append(opts, chunkupload.WithCredentials(c.AccessKeyID, c.SecretAccessKey, c.SessionToken))
	}
	if c.MaxRetries > 0 {
		opts = append(opts, chunkupload.WithMaxRetries(c.MaxRetries))
	}
	if c.Timeout > 0 {
		opts = append(opts, chunkupload.WithTimeout(c.Timeout))
	}
	if c.DefaultBucket != "" {
		opts = append(opts, chunkupload.WithDefaultBucket(c.DefaultBucket))
	}
	return opts
}
