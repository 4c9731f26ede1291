package chunkupload

import (
	"context"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/transfer/manager"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// DefaultContentType is the content type used when detection fails.
const DefaultContentType = manager.DefaultContentType

// Upload stores body under bucket/key.
//
// body may be nil, a []byte, a string, an io.Reader, or any JSON-encodable
// value. Readers that also implement io.ReaderAt with a Size method are split
// without copying; other readers are buffered once. Payloads larger than the
// configured part size are sent as a multipart upload whose parts are removed
// from the store again if the upload fails.
//
// An empty bucket selects the client's default bucket.
//
// Errors:
//   - ErrInvalidBucketName, ErrInvalidObjectKey, ErrInvalidInput: request rejected before any call
//   - ErrPayloadTooLarge, ErrTooManyParts, ErrUnsupportedBodyType: body rejected before any call
//   - ErrUploadFailed: the single request failed
//   - ErrSessionCreationFailed, ErrPartUploadFailed, ErrFinalizationFailed: multipart failure
//   - ErrCleanupFailed: parts remained after a multipart failure (wraps the original error)
//
// Example:
//
//	result, err := client.Upload(ctx, "my-bucket", "reports/q3.json", report,
//	    chunkupload.WithProgressFunc(func(e uploadtypes.ProgressEvent) {
//	        log.Printf("%d/%d", e.Loaded, e.Total)
//	    }),
//	)
func (c *Client) Upload(
	ctx context.Context,
	bucket, key string,
	body any,
	opts ...uploadtypes.UploadOption,
) (*uploadtypes.UploadResult, error) {
	return c.UploadRequest(ctx, &uploadtypes.UploadRequest{
		Bucket: bucket,
		Key:    key,
		Body:   body,
	}, opts...)
}

// UploadRequest stores req.Body with req.Attributes. Options are applied on top
// of the request's attributes; req itself is never modified.
func (c *Client) UploadRequest(
	ctx context.Context,
	req *uploadtypes.UploadRequest,
	opts ...uploadtypes.UploadOption,
) (*uploadtypes.UploadResult, error) {
	if req == nil {
		return nil, errors.NewKindError("upload", errors.ErrInvalidInput, nil).
			WithMessage("upload request cannot be nil")
	}

	config := &uploadtypes.UploadOptionConfig{
		Attributes: *req.Attributes.Clone(),
	}
	for _, opt := range opts {
		opt(config)
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = c.defaultBucket
	}

	return c.manager.Upload(ctx, &uploadtypes.UploadRequest{
		Bucket:     bucket,
		Key:        req.Key,
		Body:       req.Body,
		Attributes: config.Attributes,
	}, manager.Options{
		Progress:  config.Progress,
		QueueSize: config.QueueSize,
	})
}

// UploadFile uploads a file from the client's filesystem.
// Parts are read directly from the file at their offsets, so the file is
// never buffered in memory.
//
// Example:
//
//	result, err := client.UploadFile(ctx, "my-bucket", "backups/db.tar.gz", "/var/backups/db.tar.gz",
//	    chunkupload.WithStorageClass(uploadtypes.StorageClassStandardIA),
//	)
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, filepath string,
	opts ...uploadtypes.UploadOption,
) (*uploadtypes.UploadResult, error) {
	if filepath == "" {
		return nil, errors.NewKindError("uploadFile", errors.ErrInvalidInput, nil).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("filepath cannot be empty")
	}

	filesystem := c.filesystem()
	info, err := filesystem.Stat(filepath)
	if err != nil {
		return nil, errors.NewKindError("uploadFile", errors.ErrInvalidInput, err).
			WithBucket(bucket).
			WithKey(key)
	}
	if info.IsDir() {
		return nil, errors.NewKindError("uploadFile", errors.ErrInvalidInput, nil).
			WithBucket(bucket).
			WithKey(key).
			WithMessage("filepath points to a directory, not a file")
	}

	file, err := filesystem.Open(filepath)
	if err != nil {
		return nil, errors.NewKindError("uploadFile", errors.ErrInvalidInput, err).
			WithBucket(bucket).
			WithKey(key)
	}
	defer file.Close()

	return c.Upload(ctx, bucket, key, io.NewSectionReader(file, 0, info.Size()), opts...)
}

// Put uploads byte data. This is a convenience method for small objects that
// are already in memory.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, opts ...uploadtypes.UploadOption) error {
	_, err := c.Upload(ctx, bucket, key, data, opts...)
	return err
}
