package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store/s3store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// MockS3API is a mock implementation of the s3store.API interface for testing.
// It allows customization of each S3 operation through function fields.
type MockS3API struct {
	PutObjectFunc               func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CreateMultipartUploadFunc   func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	ListPartsFunc               func(context.Context, *s3.ListPartsInput, ...func(*s3.Options)) (*s3.ListPartsOutput, error)
}

var _ s3store.API = (*MockS3API)(nil)

// PutObject mocks the S3 PutObject operation.
func (m *MockS3API) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
}

// CreateMultipartUpload mocks the S3 CreateMultipartUpload operation.
func (m *MockS3API) CreateMultipartUpload(
	ctx context.Context,
	params *s3.CreateMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-id")}, nil
}

// UploadPart mocks the S3 UploadPart operation.
func (m *MockS3API) UploadPart(
	ctx context.Context,
	params *s3.UploadPartInput,
	optFns ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, params, optFns...)
	}
	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf(`"etag-%d"`, aws.ToInt32(params.PartNumber)))}, nil
}

// CompleteMultipartUpload mocks the S3 CompleteMultipartUpload operation.
func (m *MockS3API) CompleteMultipartUpload(
	ctx context.Context,
	params *s3.CompleteMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CompleteMultipartUploadOutput{Key: params.Key, ETag: aws.String(`"complete-etag"`)}, nil
}

// AbortMultipartUpload mocks the S3 AbortMultipartUpload operation.
func (m *MockS3API) AbortMultipartUpload(
	ctx context.Context,
	params *s3.AbortMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.AbortMultipartUploadOutput{}, nil
}

// ListParts mocks the S3 ListParts operation.
func (m *MockS3API) ListParts(
	ctx context.Context,
	params *s3.ListPartsInput,
	optFns ...func(*s3.Options),
) (*s3.ListPartsOutput, error) {
	if m.ListPartsFunc != nil {
		return m.ListPartsFunc(ctx, params, optFns...)
	}
	return &s3.ListPartsOutput{}, nil
}

// PartCall records one UploadPart invocation.
type PartCall struct {
	UploadID   string
	PartNumber int32
	Size       int64
	Data       []byte
}

// MockStore is an in-memory store.ObjectStore with overridable operations and
// call recording. It is safe for concurrent use.
type MockStore struct {
	PutObjectFunc               func(context.Context, store.Target, io.ReadSeeker, int64) (store.PutResult, error)
	CreateMultipartUploadFunc   func(context.Context, store.Target) (string, error)
	UploadPartFunc              func(context.Context, store.Target, string, int32, io.ReadSeeker, int64) (string, error)
	CompleteMultipartUploadFunc func(context.Context, store.Target, string, []uploadtypes.CompletedPart) (store.CompleteResult, error)
	AbortMultipartUploadFunc    func(context.Context, store.Target, string) error
	ListPartsFunc               func(context.Context, store.Target, string) ([]uploadtypes.CompletedPart, error)

	mu        sync.Mutex
	puts      []store.Target
	putData   [][]byte
	creates   []store.Target
	parts     []PartCall
	completes [][]uploadtypes.CompletedPart
	aborts    []string
	lists     []string
	order     []string
}

var _ store.ObjectStore = (*MockStore)(nil)

// PutObject records the call and reads the body.
func (m *MockStore) PutObject(
	ctx context.Context,
	target store.Target,
	body io.ReadSeeker,
	size int64,
) (store.PutResult, error) {
	if m.PutObjectFunc != nil {
		m.record("put", func() { m.puts = append(m.puts, target) })
		return m.PutObjectFunc(ctx, target, body, size)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return store.PutResult{}, err
	}
	m.record("put", func() {
		m.puts = append(m.puts, target)
		m.putData = append(m.putData, data)
	})
	return store.PutResult{ETag: `"put-etag"`, VersionID: "v1"}, nil
}

// CreateMultipartUpload records the call.
func (m *MockStore) CreateMultipartUpload(ctx context.Context, target store.Target) (string, error) {
	m.record("create", func() { m.creates = append(m.creates, target) })
	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, target)
	}
	return "upload-id", nil
}

// UploadPart records the call and drains the body so progress readers observe it.
func (m *MockStore) UploadPart(
	ctx context.Context,
	target store.Target,
	uploadID string,
	partNumber int32,
	body io.ReadSeeker,
	size int64,
) (string, error) {
	if m.UploadPartFunc != nil {
		m.record("part", func() {
			m.parts = append(m.parts, PartCall{UploadID: uploadID, PartNumber: partNumber, Size: size})
		})
		return m.UploadPartFunc(ctx, target, uploadID, partNumber, body, size)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.record("part", func() {
		m.parts = append(m.parts, PartCall{UploadID: uploadID, PartNumber: partNumber, Size: size, Data: data})
	})
	return fmt.Sprintf(`"etag-%d"`, partNumber), nil
}

// CompleteMultipartUpload records the manifest.
func (m *MockStore) CompleteMultipartUpload(
	ctx context.Context,
	target store.Target,
	uploadID string,
	parts []uploadtypes.CompletedPart,
) (store.CompleteResult, error) {
	manifest := append([]uploadtypes.CompletedPart(nil), parts...)
	m.record("complete", func() { m.completes = append(m.completes, manifest) })
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, target, uploadID, parts)
	}
	return store.CompleteResult{Key: target.Key, ETag: `"complete-etag"`}, nil
}

// AbortMultipartUpload records the aborted upload ID.
func (m *MockStore) AbortMultipartUpload(ctx context.Context, target store.Target, uploadID string) error {
	m.record("abort", func() { m.aborts = append(m.aborts, uploadID) })
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, target, uploadID)
	}
	return nil
}

// ListParts records the listed upload ID.
func (m *MockStore) ListParts(
	ctx context.Context,
	target store.Target,
	uploadID string,
) ([]uploadtypes.CompletedPart, error) {
	m.record("list", func() { m.lists = append(m.lists, uploadID) })
	if m.ListPartsFunc != nil {
		return m.ListPartsFunc(ctx, target, uploadID)
	}
	return nil, nil
}

func (m *MockStore) record(op string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, op)
	fn()
}

// Puts returns the targets of recorded PutObject calls.
func (m *MockStore) Puts() []store.Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Target(nil), m.puts...)
}

// PutData returns the bodies read by the default PutObject implementation.
func (m *MockStore) PutData() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.putData...)
}

// Creates returns the targets of recorded CreateMultipartUpload calls.
func (m *MockStore) Creates() []store.Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Target(nil), m.creates...)
}

// Parts returns recorded UploadPart calls in arrival order.
func (m *MockStore) Parts() []PartCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PartCall(nil), m.parts...)
}

// SortedParts returns recorded UploadPart calls ordered by part number.
func (m *MockStore) SortedParts() []PartCall {
	parts := m.Parts()
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts
}

// Completes returns the manifests passed to CompleteMultipartUpload.
func (m *MockStore) Completes() [][]uploadtypes.CompletedPart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]uploadtypes.CompletedPart(nil), m.completes...)
}

// Aborts returns the upload IDs passed to AbortMultipartUpload.
func (m *MockStore) Aborts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.aborts...)
}

// Lists returns the upload IDs passed to ListParts.
func (m *MockStore) Lists() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lists...)
}

// Calls returns the operation names in call order.
func (m *MockStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}
