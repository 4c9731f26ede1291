// Package miniostore adapts the minio-go low-level Core client to store.ObjectStore
// for S3-compatible services such as MinIO, Ceph RGW or Garage.
package miniostore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// listPageSize is the number of parts requested per ListObjectParts call.
const listPageSize = 1000

// API defines the minio-go Core operations used by the store adapter.
type API interface {
	PutObject(
		ctx context.Context,
		bucket, object string,
		data io.Reader,
		size int64,
		md5Base64, sha256Hex string,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)

	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)

	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)

	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)

	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error

	ListObjectParts(
		ctx context.Context,
		bucket, object, uploadID string,
		partNumberMarker, maxParts int,
	) (minio.ListObjectPartsResult, error)
}

// Verify that the minio Core client implements our interface
var _ API = (*minio.Core)(nil)

// Options configures a connection to an S3-compatible endpoint.
type Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	Secure          bool
	Transport       http.RoundTripper
}

// Store implements store.ObjectStore on top of minio-go.
type Store struct {
	api API
}

var _ store.ObjectStore = (*Store)(nil)

// New wraps a Core API implementation.
func New(api API) *Store {
	return &Store{api: api}
}

// Dial creates a Store connected to an S3-compatible endpoint.
func Dial(opts Options) (*Store, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	core, err := minio.NewCore(opts.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		Secure:    opts.Secure,
		Region:    opts.Region,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return New(core), nil
}

// PutObject uploads the whole body in one request.
func (s *Store) PutObject(
	ctx context.Context,
	target store.Target,
	body io.ReadSeeker,
	size int64,
) (store.PutResult, error) {
	opts, err := PutOptions(target.Attrs)
	if err != nil {
		return store.PutResult{}, err
	}
	info, err := s.api.PutObject(ctx, target.Bucket, target.Key, body, size, "", "", opts)
	if err != nil {
		return store.PutResult{}, err
	}
	return store.PutResult{ETag: info.ETag, VersionID: info.VersionID}, nil
}

// CreateMultipartUpload opens a multipart session.
func (s *Store) CreateMultipartUpload(ctx context.Context, target store.Target) (string, error) {
	opts, err := PutOptions(target.Attrs)
	if err != nil {
		return "", err
	}
	uploadID, err := s.api.NewMultipartUpload(ctx, target.Bucket, target.Key, opts)
	if err != nil {
		return "", err
	}
	if uploadID == "" {
		return "", errors.New("store returned an empty upload id")
	}
	return uploadID, nil
}

// UploadPart uploads one part. Customer-provided keys are repeated on every part.
func (s *Store) UploadPart(
	ctx context.Context,
	target store.Target,
	uploadID string,
	partNumber int32,
	body io.ReadSeeker,
	size int64,
) (string, error) {
	var opts minio.PutObjectPartOptions
	if sse := target.SSE(); sse.IsCustomerKey() {
		enc, err := ServerSide(sse)
		if err != nil {
			return "", err
		}
		opts.SSE = enc
	}

	part, err := s.api.PutObjectPart(ctx, target.Bucket, target.Key, uploadID, int(partNumber), body, size, opts)
	if err != nil {
		return "", translate(err)
	}
	return part.ETag, nil
}

// CompleteMultipartUpload assembles the object from the manifest.
func (s *Store) CompleteMultipartUpload(
	ctx context.Context,
	target store.Target,
	uploadID string,
	parts []uploadtypes.CompletedPart,
) (store.CompleteResult, error) {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, minio.CompletePart{PartNumber: int(p.PartNumber), ETag: p.ETag})
	}

	info, err := s.api.CompleteMultipartUpload(ctx, target.Bucket, target.Key, uploadID, completed, minio.PutObjectOptions{})
	if err != nil {
		return store.CompleteResult{}, translate(err)
	}

	key := info.Key
	if key == "" {
		key = target.Key
	}
	return store.CompleteResult{Key: key, ETag: info.ETag, VersionID: info.VersionID}, nil
}

// AbortMultipartUpload discards the session.
func (s *Store) AbortMultipartUpload(ctx context.Context, target store.Target, uploadID string) error {
	return translate(s.api.AbortMultipartUpload(ctx, target.Bucket, target.Key, uploadID))
}

// ListParts walks every page of the part listing.
func (s *Store) ListParts(
	ctx context.Context,
	target store.Target,
	uploadID string,
) ([]uploadtypes.CompletedPart, error) {
	var parts []uploadtypes.CompletedPart
	marker := 0
	for {
		page, err := s.api.ListObjectParts(ctx, target.Bucket, target.Key, uploadID, marker, listPageSize)
		if err != nil {
			return nil, translate(err)
		}
		for _, p := range page.ObjectParts {
			parts = append(parts, uploadtypes.CompletedPart{
				PartNumber: int32(p.PartNumber),
				ETag:       p.ETag,
				Size:       p.Size,
			})
		}
		if !page.IsTruncated || page.NextPartNumberMarker <= marker {
			return parts, nil
		}
		marker = page.NextPartNumberMarker
	}
}

// PutOptions maps object attributes onto minio-go put options.
func PutOptions(attrs *uploadtypes.ObjectAttributes) (minio.PutObjectOptions, error) {
	var opts minio.PutObjectOptions
	if attrs == nil {
		return opts, nil
	}

	opts.ContentType = attrs.ContentType
	opts.ContentEncoding = attrs.ContentEncoding
	opts.ContentDisposition = attrs.ContentDisposition
	opts.CacheControl = attrs.CacheControl
	opts.Expires = attrs.Expires
	opts.StorageClass = string(attrs.StorageClass)

	if len(attrs.Metadata) > 0 || attrs.ACL != "" {
		opts.UserMetadata = make(map[string]string, len(attrs.Metadata)+1)
		for k, v := range attrs.Metadata {
			opts.UserMetadata[k] = v
		}
		// x-amz-* keys are sent as headers rather than x-amz-meta-*
		if attrs.ACL != "" {
			opts.UserMetadata["x-amz-acl"] = string(attrs.ACL)
		}
	}
	if len(attrs.Tags) > 0 {
		opts.UserTags = make(map[string]string, len(attrs.Tags))
		for k, v := range attrs.Tags {
			opts.UserTags[k] = v
		}
	}
	if attrs.SSE != nil {
		enc, err := ServerSide(attrs.SSE)
		if err != nil {
			return opts, err
		}
		opts.ServerSideEncryption = enc
	}
	return opts, nil
}

// ServerSide converts the encryption settings into a minio-go encrypt.ServerSide.
func ServerSide(sse *uploadtypes.SSEConfig) (encrypt.ServerSide, error) {
	switch {
	case sse == nil:
		return nil, nil
	case sse.IsCustomerKey():
		key, err := base64.StdEncoding.DecodeString(sse.CustomerKey)
		if err != nil {
			return nil, fmt.Errorf("customer key is not valid base64: %w", err)
		}
		return encrypt.NewSSEC(key)
	case sse.Type == uploadtypes.SSEKMS:
		return encrypt.NewSSEKMS(sse.KMSKeyID, nil)
	case sse.Type == uploadtypes.SSES3:
		return encrypt.NewSSE(), nil
	default:
		return nil, fmt.Errorf("unsupported server-side encryption type %q", sse.Type)
	}
}

// IsNoSuchUpload reports whether err is the store's "no such upload" answer.
func IsNoSuchUpload(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNoSuchUpload) {
		return true
	}
	return minio.ToErrorResponse(err).Code == "NoSuchUpload"
}

func translate(err error) error {
	if err == nil || errors.Is(err, store.ErrNoSuchUpload) {
		return err
	}
	if IsNoSuchUpload(err) {
		return fmt.Errorf("%w: %w", store.ErrNoSuchUpload, err)
	}
	return err
}
