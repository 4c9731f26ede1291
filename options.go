package chunkupload

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// WithRegion sets the region for store operations.
// If not specified, uses the region from the AWS configuration chain or us-east-1.
func WithRegion(region string) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Region = region
	}
}

// WithMaxRetries sets the maximum number of attempts the SDK makes per request.
// Default is 3.
func WithMaxRetries(maxRetries int) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the HTTP timeout for individual store requests.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// This is required for most S3-compatible services.
func WithForcePathStyle(forcePathStyle bool) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig provides a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithEndpoint sets a custom store endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithDisableSSL selects plain HTTP for endpoints given without a scheme.
func WithDisableSSL(disableSSL bool) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.DisableSSL = disableSSL
	}
}

// WithCustomHTTPClient provides the HTTP client used for store requests.
// The minio backend uses only its transport.
func WithCustomHTTPClient(client *http.Client) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithCredentials sets static credentials instead of the default credential chain.
func WithCredentials(accessKeyID, secretAccessKey, sessionToken string) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithBackend selects the store adapter.
func WithBackend(backend uploadtypes.Backend) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Backend = backend
	}
}

// WithMinio selects the minio backend at endpoint with path-style addressing.
func WithMinio(endpoint string) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Backend = uploadtypes.BackendMinio
		c.Endpoint = endpoint
		c.ForcePathStyle = true
	}
}

// WithDefaultBucket sets the bucket used by uploads that name none.
func WithDefaultBucket(bucket string) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.DefaultBucket = bucket
	}
}

// WithQueueSize sets how many parts are transferred concurrently per batch.
// Default is 4.
func WithQueueSize(queueSize int) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Limits.QueueSize = queueSize
	}
}

// WithPartSize sets the starting part size, which is also the largest payload
// sent as a single request. Default is 5MiB, the store minimum.
func WithPartSize(partSize int64) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Limits.DefaultPartSize = partSize
	}
}

// WithMaxPartSize caps the part size. Default is 5GiB.
func WithMaxPartSize(maxPartSize int64) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Limits.MaxPartSize = maxPartSize
	}
}

// WithMaxPartCount caps the number of parts. Default is 10,000.
func WithMaxPartCount(maxPartCount int32) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Limits.MaxPartCount = maxPartCount
	}
}

// WithMaxObjectSize sets the largest accepted payload. Default is 5TiB.
func WithMaxObjectSize(maxObjectSize int64) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Limits.MaxObjectSize = maxObjectSize
	}
}

// WithCleanupVerifyAttempts sets how many times a failed multipart upload lists
// its residual parts after the abort, waiting interval between attempts.
// Default is a single check.
func WithCleanupVerifyAttempts(attempts int, interval time.Duration) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		if attempts > 0 {
			c.VerifyAttempts = attempts
		}
		if interval > 0 {
			c.VerifyInterval = interval
		}
	}
}

// WithLogger sets the structured logger. Logs are discarded by default.
func WithLogger(logger *slog.Logger) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithTracerProvider sets the provider of the tracer that spans uploads.
// Tracing is a no-op by default.
func WithTracerProvider(provider trace.TracerProvider) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.TracerProvider = provider
	}
}

// WithFilesystem sets the filesystem UploadFile reads from.
// If not specified, defaults to the OS filesystem rooted at /.
func WithFilesystem(filesystem billy.Filesystem) uploadtypes.Option {
	return func(c *uploadtypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithContentType sets the content type, skipping detection.
func WithContentType(contentType string) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.ContentType = contentType
	}
}

// WithContentEncoding sets the Content-Encoding of the stored object.
func WithContentEncoding(encoding string) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.ContentEncoding = encoding
	}
}

// WithContentDisposition sets the Content-Disposition of the stored object.
func WithContentDisposition(disposition string) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.ContentDisposition = disposition
	}
}

// WithCacheControl sets the Cache-Control of the stored object.
func WithCacheControl(cacheControl string) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.CacheControl = cacheControl
	}
}

// WithExpires sets the Expires header of the stored object.
func WithExpires(expires time.Time) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.Expires = expires
	}
}

// WithMetadata adds user metadata. Repeated calls merge.
func WithMetadata(metadata map[string]string) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		if c.Attributes.Metadata == nil {
			c.Attributes.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			c.Attributes.Metadata[k] = v
		}
	}
}

// WithTags adds object tags. Repeated calls merge.
func WithTags(tags map[string]string) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		if c.Attributes.Tags == nil {
			c.Attributes.Tags = make(map[string]string, len(tags))
		}
		for k, v := range tags {
			c.Attributes.Tags[k] = v
		}
	}
}

// WithACL sets the canned ACL.
func WithACL(acl uploadtypes.ObjectACL) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.ACL = acl
	}
}

// WithStorageClass sets the storage class.
func WithStorageClass(storageClass uploadtypes.StorageClass) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.StorageClass = storageClass
	}
}

// WithServerSideEncryption sets server-side encryption. A customer-provided key
// is sent with every part request.
func WithServerSideEncryption(sse *uploadtypes.SSEConfig) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Attributes.SSE = sse
	}
}

// WithProgress sets the sink that receives aggregate progress events.
func WithProgress(sink uploadtypes.ProgressSink) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		c.Progress = sink
	}
}

// WithProgressFunc is WithProgress for a plain function.
func WithProgressFunc(fn func(uploadtypes.ProgressEvent)) uploadtypes.UploadOption {
	return WithProgress(uploadtypes.ProgressSinkFunc(fn))
}

// WithUploadQueueSize overrides the client's queue size for one upload.
func WithUploadQueueSize(queueSize int) uploadtypes.UploadOption {
	return func(c *uploadtypes.UploadOptionConfig) {
		if queueSize > 0 {
			c.QueueSize = queueSize
		}
	}
}
