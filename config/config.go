// Package config provides loading, validation, and conversion of chunkupload
// client configuration defined in YAML.
//
// Configuration is layered. Defaults come first, then the YAML file, then
// variables from optional .env files, and finally the process environment.
// Every environment variable is prefixed with CHUNKUPLOAD_.
//
// # Basic Usage
//
//	cfg, err := config.Load(osfs.New("/"), "/etc/chunkupload.yaml", ".env")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := chunkupload.New(cfg.Options()...)
//
// # File Format
//
//	backend: minio
//	endpoint: http://localhost:9000
//	force_path_style: true
//	access_key_id: minio
//	secret_access_key: minio123
//	default_bucket: uploads
//	timeout: 30s
//	upload:
//	  part_size: 8MiB
//	  max_object_size: 1TiB
//	  queue_size: 6
//	  verify_attempts: 3
//	  verify_interval: 2s
//
// Sizes accept plain byte counts or human-readable values such as 64MiB or 5GB
// (binary multiples in both spellings).
package config

import (
	"time"

	units "github.com/docker/go-units"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// Config is the file representation of the client configuration.
type Config struct {
	Backend         uploadtypes.Backend `yaml:"backend"`
	Region          string              `yaml:"region"`
	Endpoint        string              `yaml:"endpoint"`
	ForcePathStyle  bool                `yaml:"force_path_style"`
	DisableSSL      bool                `yaml:"disable_ssl"`
	AccessKeyID     string              `yaml:"access_key_id"`
	SecretAccessKey string              `yaml:"secret_access_key"`
	SessionToken    string              `yaml:"session_token"`
	MaxRetries      int                 `yaml:"max_retries"`
	Timeout         time.Duration       `yaml:"timeout"`
	DefaultBucket   string              `yaml:"default_bucket"`
	Upload          UploadConfig        `yaml:"upload"`
}

// UploadConfig holds the upload limits and cleanup settings.
type UploadConfig struct {
	PartSize       Size          `yaml:"part_size"`
	MaxPartSize    Size          `yaml:"max_part_size"`
	MaxObjectSize  Size          `yaml:"max_object_size"`
	MaxPartCount   int32         `yaml:"max_part_count"`
	QueueSize      int           `yaml:"queue_size"`
	VerifyAttempts int           `yaml:"verify_attempts"`
	VerifyInterval time.Duration `yaml:"verify_interval"`
}

// Size is a byte count that unmarshals from human-readable strings.
type Size int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	n, err := ParseSize(value.Value)
	if err != nil {
		return err
	}
	*s = n
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s Size) MarshalYAML() (any, error) {
	return s.String(), nil
}

// String formats the size with binary units, e.g. "8MiB".
func (s Size) String() string {
	return units.BytesSize(float64(s))
}

// ParseSize parses a byte count such as "5242880", "5MiB", or "5MB".
func ParseSize(v string) (Size, error) {
	n, err := units.RAMInBytes(v)
	if err != nil {
		return 0, err
	}
	return Size(n), nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	limits := uploadtypes.DefaultLimits()
	return &Config{
		Backend:    uploadtypes.BackendS3,
		MaxRetries: 3,
		Upload: UploadConfig{
			PartSize:       Size(limits.DefaultPartSize),
			MaxPartSize:    Size(limits.MaxPartSize),
			MaxObjectSize:  Size(limits.MaxObjectSize),
			MaxPartCount:   limits.MaxPartCount,
			QueueSize:      limits.QueueSize,
			VerifyAttempts: 1,
			VerifyInterval: time.Second,
		},
	}
}

// Limits returns the upload limits described by the configuration.
func (c *Config) Limits() uploadtypes.Limits {
	return uploadtypes.Limits{
		DefaultPartSize: int64(c.Upload.PartSize),
		MaxPartSize:     int64(c.Upload.MaxPartSize),
		MaxObjectSize:   int64(c.Upload.MaxObjectSize),
		MaxPartCount:    c.Upload.MaxPartCount,
		QueueSize:       c.Upload.QueueSize,
	}
}
