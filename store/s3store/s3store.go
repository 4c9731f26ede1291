// Package s3store adapts the AWS SDK S3 client to store.ObjectStore.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// Store implements store.ObjectStore on top of the S3 API.
type Store struct {
	api API
}

var _ store.ObjectStore = (*Store)(nil)

// New wraps an S3 API implementation.
func New(api API) *Store {
	return &Store{api: api}
}

// NewFromConfig creates a Store backed by a new SDK client.
func NewFromConfig(cfg aws.Config, optFns ...func(*s3.Options)) *Store {
	return New(s3.NewFromConfig(cfg, optFns...))
}

// PutObject uploads the whole body in a single PutObject request.
func (s *Store) PutObject(
	ctx context.Context,
	target store.Target,
	body io.ReadSeeker,
	size int64,
) (store.PutResult, error) {
	h := headersFor(target.Attrs)
	input := &s3.PutObjectInput{
		Bucket:               aws.String(target.Bucket),
		Key:                  aws.String(target.Key),
		Body:                 body,
		ContentLength:        aws.Int64(size),
		ContentType:          h.contentType,
		ContentEncoding:      h.contentEncoding,
		ContentDisposition:   h.contentDisposition,
		CacheControl:         h.cacheControl,
		Expires:              h.expires,
		Metadata:             h.metadata,
		Tagging:              h.tagging,
		ACL:                  h.acl,
		StorageClass:         h.storageClass,
		ServerSideEncryption: h.sse,
		SSEKMSKeyId:          h.kmsKeyID,
		SSECustomerAlgorithm: h.customerAlgorithm,
		SSECustomerKey:       h.customerKey,
		SSECustomerKeyMD5:    h.customerKeyMD5,
	}

	output, err := s.api.PutObject(ctx, input)
	if err != nil {
		return store.PutResult{}, err
	}

	return store.PutResult{
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
	}, nil
}

// CreateMultipartUpload opens a multipart session with the target's attributes.
func (s *Store) CreateMultipartUpload(ctx context.Context, target store.Target) (string, error) {
	h := headersFor(target.Attrs)
	input := &s3.CreateMultipartUploadInput{
		Bucket:               aws.String(target.Bucket),
		Key:                  aws.String(target.Key),
		ContentType:          h.contentType,
		ContentEncoding:      h.contentEncoding,
		ContentDisposition:   h.contentDisposition,
		CacheControl:         h.cacheControl,
		Expires:              h.expires,
		Metadata:             h.metadata,
		Tagging:              h.tagging,
		ACL:                  h.acl,
		StorageClass:         h.storageClass,
		ServerSideEncryption: h.sse,
		SSEKMSKeyId:          h.kmsKeyID,
		SSECustomerAlgorithm: h.customerAlgorithm,
		SSECustomerKey:       h.customerKey,
		SSECustomerKeyMD5:    h.customerKeyMD5,
	}

	output, err := s.api.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", err
	}
	uploadID := aws.ToString(output.UploadId)
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
	input := &s3.UploadPartInput{
		Bucket:        aws.String(target.Bucket),
		Key:           aws.String(target.Key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          body,
		ContentLength: aws.Int64(size),
	}

	if sse := target.SSE(); sse.IsCustomerKey() {
		input.SSECustomerAlgorithm = aws.String(uploadtypes.SSECustomerAlgorithm)
		input.SSECustomerKey = aws.String(sse.CustomerKey)
		input.SSECustomerKeyMD5 = optional(sse.CustomerKeyMD5)
	}

	output, err := s.api.UploadPart(ctx, input)
	if err != nil {
		return "", translate(err)
	}
	return aws.ToString(output.ETag), nil
}

// CompleteMultipartUpload assembles the object from the manifest.
func (s *Store) CompleteMultipartUpload(
	ctx context.Context,
	target store.Target,
	uploadID string,
	parts []uploadtypes.CompletedPart,
) (store.CompleteResult, error) {
	completed := make([]awstypes.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		})
	}

	output, err := s.api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(target.Bucket),
		Key:      aws.String(target.Key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return store.CompleteResult{}, translate(err)
	}

	key := aws.ToString(output.Key)
	if key == "" {
		key = target.Key
	}
	return store.CompleteResult{
		Key:       key,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
	}, nil
}

// AbortMultipartUpload discards the session.
func (s *Store) AbortMultipartUpload(ctx context.Context, target store.Target, uploadID string) error {
	_, err := s.api.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(target.Bucket),
		Key:      aws.String(target.Key),
		UploadId: aws.String(uploadID),
	})
	return translate(err)
}

// ListParts walks every page of the part listing.
func (s *Store) ListParts(
	ctx context.Context,
	target store.Target,
	uploadID string,
) ([]uploadtypes.CompletedPart, error) {
	input := &s3.ListPartsInput{
		Bucket:   aws.String(target.Bucket),
		Key:      aws.String(target.Key),
		UploadId: aws.String(uploadID),
	}
	if sse := target.SSE(); sse.IsCustomerKey() {
		input.SSECustomerAlgorithm = aws.String(uploadtypes.SSECustomerAlgorithm)
		input.SSECustomerKey = aws.String(sse.CustomerKey)
		input.SSECustomerKeyMD5 = optional(sse.CustomerKeyMD5)
	}

	var parts []uploadtypes.CompletedPart
	paginator := s3.NewListPartsPaginator(s.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translate(err)
		}
		for _, p := range page.Parts {
			parts = append(parts, uploadtypes.CompletedPart{
				PartNumber: aws.ToInt32(p.PartNumber),
				ETag:       aws.ToString(p.ETag),
				Size:       aws.ToInt64(p.Size),
			})
		}
	}
	return parts, nil
}

// objectHeaders are the object attributes in the shape shared by the
// PutObject and CreateMultipartUpload inputs.
type objectHeaders struct {
	contentType        *string
	contentEncoding    *string
	contentDisposition *string
	cacheControl       *string
	expires            *time.Time
	metadata           map[string]string
	tagging            *string
	acl                awstypes.ObjectCannedACL
	storageClass       awstypes.StorageClass
	sse                awstypes.ServerSideEncryption
	kmsKeyID           *string
	customerAlgorithm  *string
	customerKey        *string
	customerKeyMD5     *string
}

func headersFor(attrs *uploadtypes.ObjectAttributes) objectHeaders {
	var h objectHeaders
	if attrs == nil {
		return h
	}

	h.contentType = optional(attrs.ContentType)
	h.contentEncoding = optional(attrs.ContentEncoding)
	h.contentDisposition = optional(attrs.ContentDisposition)
	h.cacheControl = optional(attrs.CacheControl)
	h.tagging = optional(EncodeTags(attrs.Tags))
	h.acl = awstypes.ObjectCannedACL(attrs.ACL)
	h.storageClass = awstypes.StorageClass(attrs.StorageClass)
	if !attrs.Expires.IsZero() {
		h.expires = aws.Time(attrs.Expires)
	}
	if len(attrs.Metadata) > 0 {
		h.metadata = attrs.Metadata
	}

	if sse := attrs.SSE; sse != nil {
		switch {
		case sse.IsCustomerKey():
			h.customerAlgorithm = aws.String(uploadtypes.SSECustomerAlgorithm)
			h.customerKey = aws.String(sse.CustomerKey)
			h.customerKeyMD5 = optional(sse.CustomerKeyMD5)
		case sse.Type == uploadtypes.SSEKMS:
			h.sse = awstypes.ServerSideEncryptionAwsKms
			h.kmsKeyID = optional(sse.KMSKeyID)
		case sse.Type == uploadtypes.SSES3:
			h.sse = awstypes.ServerSideEncryptionAes256
		}
	}
	return h
}

// EncodeTags renders tags as a URL-encoded query string, sorted by key.
func EncodeTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	values := make(url.Values, len(tags))
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values.Set(k, tags[k])
	}
	return values.Encode()
}

// IsNoSuchUpload reports whether err is the store's "no such upload" answer.
func IsNoSuchUpload(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNoSuchUpload) {
		return true
	}
	var noSuchUpload *awstypes.NoSuchUpload
	if errors.As(err, &noSuchUpload) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchUpload"
	}
	return false
}

// translate maps "no such upload" answers onto store.ErrNoSuchUpload, keeping
// the SDK error in the chain.
func translate(err error) error {
	if err == nil || errors.Is(err, store.ErrNoSuchUpload) {
		return err
	}
	if IsNoSuchUpload(err) {
		return fmt.Errorf("%w: %w", store.ErrNoSuchUpload, err)
	}
	return err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
