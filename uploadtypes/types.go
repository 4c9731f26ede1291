// Package uploadtypes provides shared type definitions for the chunkupload module.
package uploadtypes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
	"go.opentelemetry.io/otel/trace"
)

// StorageClass represents the storage class for uploaded objects.
type StorageClass string

// Predefined storage classes
const (
	// StorageClassStandard is the default storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassReducedRedundancy provides reduced redundancy storage
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassOneZoneIA provides one zone infrequent access storage
	StorageClassOneZoneIA StorageClass = "ONEZONE_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides Glacier archival storage
	StorageClassGlacier StorageClass = "GLACIER"

	// StorageClassDeepArchive provides Deep Archive storage
	StorageClassDeepArchive StorageClass = "DEEP_ARCHIVE"

	// StorageClassGlacierIR provides Glacier Instant Retrieval storage
	StorageClassGlacierIR StorageClass = "GLACIER_IR"
)

// SSEType represents the server-side encryption type for objects.
type SSEType string

// Predefined server-side encryption types
const (
	// SSES3 uses store-managed encryption keys
	SSES3 SSEType = "AES256"

	// SSEKMS uses KMS-managed encryption keys
	SSEKMS SSEType = "aws:kms"

	// SSEC uses customer-provided encryption keys
	SSEC SSEType = "SSE-C"
)

// SSECustomerAlgorithm is the only algorithm accepted for customer-provided keys.
const SSECustomerAlgorithm = "AES256"

// ObjectACL represents the canned access control list for uploaded objects.
type ObjectACL string

// Predefined object ACLs
const (
	// ACLPrivate grants private access (default)
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access
	ACLPublicRead ObjectACL = "public-read"

	// ACLPublicReadWrite grants public read and write access
	ACLPublicReadWrite ObjectACL = "public-read-write"

	// ACLAuthenticatedRead grants authenticated users read access
	ACLAuthenticatedRead ObjectACL = "authenticated-read"

	// ACLOwnerRead grants bucket owner read access
	ACLOwnerRead ObjectACL = "bucket-owner-read"

	// ACLOwnerFullControl grants bucket owner full control
	ACLOwnerFullControl ObjectACL = "bucket-owner-full-control"
)

// SSEConfig contains server-side encryption configuration.
type SSEConfig struct {
	// Type is the encryption type (S3, KMS, or customer-provided)
	Type SSEType

	// KMSKeyID is the KMS key ID (optional for SSE-KMS)
	KMSKeyID string

	// CustomerKey is the base64 encoded customer-provided key (for SSE-C)
	CustomerKey string

	// CustomerKeyMD5 is the base64 encoded MD5 of the raw customer key.
	// It is computed when left empty.
	CustomerKeyMD5 string
}

// IsCustomerKey reports whether the configuration carries a customer-provided key.
// Customer keys must be repeated on every part request.
func (s *SSEConfig) IsCustomerKey() bool {
	return s != nil && (s.Type == SSEC || s.CustomerKey != "")
}

// ObjectAttributes is the content metadata forwarded to the store when the
// object (or its multipart session) is created.
type ObjectAttributes struct {
	ContentType        string
	ContentEncoding    string
	ContentDisposition string
	CacheControl       string
	Expires            time.Time
	Metadata           map[string]string
	Tags               map[string]string
	ACL                ObjectACL
	StorageClass       StorageClass
	SSE                *SSEConfig
}

// Clone returns a deep copy so computed values can be injected without
// touching the caller's request.
func (a *ObjectAttributes) Clone() *ObjectAttributes {
	if a == nil {
		return &ObjectAttributes{}
	}
	out := *a
	if a.Metadata != nil {
		out.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	if a.Tags != nil {
		out.Tags = make(map[string]string, len(a.Tags))
		for k, v := range a.Tags {
			out.Tags[k] = v
		}
	}
	if a.SSE != nil {
		sse := *a.SSE
		out.SSE = &sse
	}
	return &out
}

// UploadRequest describes a single upload.
type UploadRequest struct {
	// Bucket is the destination bucket
	Bucket string

	// Key is the destination object key
	Key string

	// Body is the payload. Supported: nil, []byte, string, io.Reader
	// (range-addressed when it also implements io.ReaderAt with a Size method),
	// or any JSON-encodable value.
	Body any

	// Attributes carries content metadata for the object
	Attributes ObjectAttributes
}

// ProgressEvent reports aggregate bytes transferred for one upload.
type ProgressEvent struct {
	// Loaded is the aggregate number of bytes acknowledged so far
	Loaded int64

	// Total is the sanitized payload size
	Total int64

	// Part is the part that produced the event; 0 for single-request uploads
	Part int32

	// Key is the destination object key
	Key string
}

// ProgressSink receives aggregate progress events.
// Events for a single upload are delivered serially with non-decreasing Loaded.
type ProgressSink interface {
	Progress(event ProgressEvent)
}

// ProgressSinkFunc adapts a function to the ProgressSink interface.
type ProgressSinkFunc func(event ProgressEvent)

// Progress calls f(event).
func (f ProgressSinkFunc) Progress(event ProgressEvent) {
	f(event)
}

// CompletedPart is one entry of the completion manifest.
type CompletedPart struct {
	PartNumber int32
	ETag       string
	Size       int64
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the object key that was uploaded
	Key string

	// ETag is the entity tag reported by the store
	ETag string

	// VersionID is the version ID if versioning is enabled
	VersionID string

	// Size is the size of the uploaded object in bytes
	Size int64

	// Parts is the number of parts; 0 for single-request uploads
	Parts int

	// UploadID is the multipart session identifier; empty for single-request uploads
	UploadID string

	// Duration is how long the upload took
	Duration time.Duration
}

// Multipart reports whether the upload used a multipart session.
func (r *UploadResult) Multipart() bool {
	return r.UploadID != ""
}

// Limits bounds how a payload is split and transferred.
type Limits struct {
	// DefaultPartSize is the starting part size and the single-request threshold
	DefaultPartSize int64

	// MaxPartSize caps the part size selector
	MaxPartSize int64

	// MaxObjectSize is the largest accepted payload
	MaxObjectSize int64

	// MaxPartCount is the largest accepted number of parts
	MaxPartCount int32

	// QueueSize is the number of parts transferred concurrently per batch
	QueueSize int
}

// Default limits matching S3 service quotas.
const (
	DefaultPartSize      int64 = 5 * 1024 * 1024
	DefaultMaxPartSize   int64 = 5 * 1024 * 1024 * 1024
	DefaultMaxObjectSize int64 = 5 * 1024 * 1024 * 1024 * 1024
	DefaultMaxPartCount  int32 = 10000
	DefaultQueueSize           = 4
)

// DefaultLimits returns the limits applied when none are configured.
func DefaultLimits() Limits {
	return Limits{
		DefaultPartSize: DefaultPartSize,
		MaxPartSize:     DefaultMaxPartSize,
		MaxObjectSize:   DefaultMaxObjectSize,
		MaxPartCount:    DefaultMaxPartCount,
		QueueSize:       DefaultQueueSize,
	}
}

// Backend selects the store adapter used by the client.
type Backend string

// Supported backends
const (
	BackendS3    Backend = "s3"
	BackendMinio Backend = "minio"
)

// Configuration types for functional options

// ClientConfig holds configuration for the upload client.
type ClientConfig struct {
	Backend          Backend
	Region           string
	Endpoint         string
	MaxRetries       int
	Timeout          time.Duration
	ForcePathStyle   bool
	DisableSSL       bool
	CustomAWSConfig  *aws.Config
	CustomHTTPClient *http.Client
	AccessKeyID      string
	SecretAccessKey  string
	SessionToken     string
	DefaultBucket    string
	Limits           Limits
	VerifyAttempts   int
	VerifyInterval   time.Duration
	Logger           *slog.Logger
	TracerProvider   trace.TracerProvider
	Filesystem       billy.Filesystem
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	Attributes ObjectAttributes
	Progress   ProgressSink
	QueueSize  int
}

// Option is a functional option for configuring the upload client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring a single upload.
	UploadOption func(*UploadOptionConfig)
)
