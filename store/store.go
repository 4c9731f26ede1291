// Package store defines the blob store boundary used by the upload orchestrator.
//
// Adapters live in sub-packages: s3store wraps the AWS SDK, miniostore wraps
// minio-go for S3-compatible services. Both translate a store's "no such upload"
// answer to ErrNoSuchUpload so cleanup can tell an already-gone session apart
// from a failed listing.
package store

import (
	"context"
	"errors"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// ErrNoSuchUpload is returned when the multipart upload ID is unknown to the store,
// usually because it was already aborted or completed.
var ErrNoSuchUpload = errors.New("store: no such upload")

// Target identifies the destination object and the attributes to apply on creation.
type Target struct {
	Bucket string
	Key    string
	Attrs  *uploadtypes.ObjectAttributes
}

// SSE returns the encryption settings of the target, if any.
func (t Target) SSE() *uploadtypes.SSEConfig {
	if t.Attrs == nil {
		return nil
	}
	return t.Attrs.SSE
}

// PutResult is the store's answer to a single-request upload.
type PutResult struct {
	ETag      string
	VersionID string
}

// CompleteResult is the store's answer to a multipart completion.
type CompleteResult struct {
	Key       string
	ETag      string
	VersionID string
}

// ObjectStore is the subset of blob store operations the orchestrator needs.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// PutObject uploads the whole body in one request.
	PutObject(ctx context.Context, target Target, body io.ReadSeeker, size int64) (PutResult, error)

	// CreateMultipartUpload opens a multipart session and returns its ID.
	CreateMultipartUpload(ctx context.Context, target Target) (string, error)

	// UploadPart uploads one part and returns its ETag.
	UploadPart(
		ctx context.Context,
		target Target,
		uploadID string,
		partNumber int32,
		body io.ReadSeeker,
		size int64,
	) (string, error)

	// CompleteMultipartUpload assembles the object from the manifest.
	CompleteMultipartUpload(
		ctx context.Context,
		target Target,
		uploadID string,
		parts []uploadtypes.CompletedPart,
	) (CompleteResult, error)

	// AbortMultipartUpload discards the session and its parts.
	AbortMultipartUpload(ctx context.Context, target Target, uploadID string) error

	// ListParts returns the parts the store still holds for the session.
	ListParts(ctx context.Context, target Target, uploadID string) ([]uploadtypes.CompletedPart, error)
}
