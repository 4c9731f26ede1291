package chunkupload

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/transfer/manager"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store/miniostore"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store/s3store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// DefaultRegion is used when neither the options nor the environment name a region.
const DefaultRegion = "us-east-1"

// Client uploads objects to a blob store.
// It is safe for concurrent use; each upload runs as an independent session.
type Client struct {
	// store is the backend adapter every upload goes through
	store store.ObjectStore

	// manager runs the upload pipeline
	manager *manager.Manager

	// defaultBucket is used when an upload names no bucket
	defaultBucket string

	// mu protects fs
	mu sync.RWMutex

	// fs resolves paths for UploadFile
	fs billy.Filesystem
}

func defaultConfig() *uploadtypes.ClientConfig {
	return &uploadtypes.ClientConfig{
		Backend:        uploadtypes.BackendS3,
		MaxRetries:     3,
		Limits:         uploadtypes.DefaultLimits(),
		VerifyAttempts: 1,
		VerifyInterval: time.Second,
	}
}

// New creates a client with the provided options.
// The S3 backend loads credentials through the AWS default credential chain
// unless static credentials are supplied.
//
// Example:
//
//	client, err := chunkupload.New(
//	    chunkupload.WithRegion("eu-west-1"),
//	    chunkupload.WithQueueSize(8),
//	)
func New(opts ...uploadtypes.Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validation.ValidateLimits(cfg.Limits); err != nil {
		return nil, err
	}

	var (
		st  store.ObjectStore
		err error
	)
	switch cfg.Backend {
	case uploadtypes.BackendS3, "":
		st, err = newS3Store(cfg)
	case uploadtypes.BackendMinio:
		st, err = newMinioStore(cfg)
	default:
		err = errors.NewKindError("client initialization", errors.ErrInvalidConfig, nil).
			WithMessage("unknown backend " + string(cfg.Backend))
	}
	if err != nil {
		return nil, err
	}

	return newClient(st, cfg), nil
}

// NewWithStore creates a client over a custom store implementation.
// This is primarily used for testing and for stores without a bundled adapter.
func NewWithStore(st store.ObjectStore, opts ...uploadtypes.Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validation.ValidateLimits(cfg.Limits); err != nil {
		return nil, err
	}
	return newClient(st, cfg), nil
}

func newClient(st store.ObjectStore, cfg *uploadtypes.ClientConfig) *Client {
	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = osfs.New("/")
	}

	return &Client{
		store: st,
		manager: manager.New(st, manager.Config{
			Limits:         cfg.Limits,
			VerifyAttempts: cfg.VerifyAttempts,
			VerifyInterval: cfg.VerifyInterval,
			Logger:         cfg.Logger,
			TracerProvider: cfg.TracerProvider,
		}),
		defaultBucket: cfg.DefaultBucket,
		fs:            filesystem,
	}
}

func newS3Store(clientCfg *uploadtypes.ClientConfig) (*s3store.Store, error) {
	var cfg aws.Config
	if clientCfg.CustomAWSConfig != nil {
		cfg = clientCfg.CustomAWSConfig.Copy()
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.AccessKeyID != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					clientCfg.AccessKeyID,
					clientCfg.SecretAccessKey,
					clientCfg.SessionToken,
				),
			))
		}

		var err error
		cfg, err = config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, errors.NewKindError("client initialization", errors.ErrInvalidConfig, err)
		}
	}

	// Apply region from options if specified, otherwise ensure a region is set
	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	switch {
	case clientCfg.CustomHTTPClient != nil:
		httpClient := clientCfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	case clientCfg.Timeout > 0:
		httpClient := &http.Client{Timeout: clientCfg.Timeout}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	if clientCfg.Endpoint != "" {
		endpoint := endpointURL(clientCfg.Endpoint, clientCfg.DisableSSL)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return s3store.NewFromConfig(cfg, s3Opts...), nil
}

func newMinioStore(cfg *uploadtypes.ClientConfig) (*miniostore.Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NewKindError("client initialization", errors.ErrInvalidConfig, nil).
			WithMessage("the minio backend requires an endpoint")
	}

	host, secure := hostAndScheme(cfg.Endpoint, cfg.DisableSSL)
	opts := miniostore.Options{
		Endpoint:        host,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
		Region:          cfg.Region,
		Secure:          secure,
	}
	if cfg.CustomHTTPClient != nil {
		opts.Transport = cfg.CustomHTTPClient.Transport
	}

	st, err := miniostore.Dial(opts)
	if err != nil {
		return nil, errors.NewKindError("client initialization", errors.ErrInvalidConfig, err)
	}
	return st, nil
}

// endpointURL makes sure endpoint carries a scheme.
func endpointURL(endpoint string, disableSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if disableSSL {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}

// hostAndScheme splits an endpoint into the host:port minio expects and
// whether TLS is used.
func hostAndScheme(endpoint string, disableSSL bool) (string, bool) {
	u, err := url.Parse(endpointURL(endpoint, disableSSL))
	if err != nil || u.Host == "" {
		return endpoint, !disableSSL
	}
	return u.Host, u.Scheme == "https"
}

// Store returns the backend the client uploads to.
func (c *Client) Store() store.ObjectStore {
	return c.store
}

// Limits returns the limits the client enforces.
func (c *Client) Limits() uploadtypes.Limits {
	return c.manager.Limits()
}

// SetFilesystem sets the filesystem implementation used by UploadFile.
func (c *Client) SetFilesystem(filesystem billy.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

func (c *Client) filesystem() billy.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// Close releases any resources held by the client.
// Currently a no-op but included for future extensibility.
func (c *Client) Close() error {
	return nil
}
