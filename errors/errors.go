// Package errors provides error types and handling for chunked upload operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an upload operation error with context about the operation that failed.
// It wraps the underlying store error and tags it with the failure kind so callers can
// match either with errors.Is / errors.As.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "uploadPart", "completeMultipartUpload")
	Op string

	// Bucket is the destination bucket (if applicable)
	Bucket string

	// Key is the destination object key (if applicable)
	Key string

	// UploadID is the store-assigned multipart upload identifier (if one exists)
	UploadID string

	// PartNumber is the failing part (if applicable)
	PartNumber int32

	// Kind is one of the sentinel errors declared in this package
	Kind error

	// Err is the underlying error from the store client or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	msg := "chunkupload." + e.Op
	switch {
	case e.Bucket != "" && e.Key != "":
		msg += fmt.Sprintf(" %s/%s", e.Bucket, e.Key)
	case e.Bucket != "":
		msg += " bucket " + e.Bucket
	case e.Key != "":
		msg += " object " + e.Key
	}
	if e.UploadID != "" {
		msg += " upload " + e.UploadID
	}
	if e.PartNumber > 0 {
		msg += fmt.Sprintf(" part %d", e.PartNumber)
	}

	switch {
	case e.Kind != nil && e.Err != nil && !errors.Is(e.Err, e.Kind):
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	default:
		return msg
	}
}

// Unwrap exposes both the failure kind and the underlying cause for error chaining.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithUploadID adds multipart upload context to an existing error.
func (e *Error) WithUploadID(uploadID string) *Error {
	e.UploadID = uploadID
	return e
}

// WithPart adds part number context to an existing error.
func (e *Error) WithPart(partNumber int32) *Error {
	e.PartNumber = partNumber
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	if e.Err == nil {
		e.Err = errors.New(message)
		return e
	}
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewKindError creates a new Error tagged with a failure kind.
func NewKindError(op string, kind, err error) *Error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// CleanupError reports that a multipart upload could not be fully cleaned up after a
// failure. It is a stronger signal than the failure that triggered cleanup: parts that remain
// on the store keep accruing storage costs until a lifecycle rule or an operator removes them.
//
// The triggering error stays reachable through Unwrap.
type CleanupError struct {
	Bucket        string
	Key           string
	UploadID      string
	ResidualParts int
	Cause         error
}

// Error implements the error interface.
func (e *CleanupError) Error() string {
	msg := fmt.Sprintf("chunkupload.cleanup %s/%s upload %s: %v: %d parts remain after abort",
		e.Bucket, e.Key, e.UploadID, ErrCleanupFailed, e.ResidualParts)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (triggered by: %v)", e.Cause)
	}
	return msg
}

// Unwrap returns ErrCleanupFailed and the triggering error.
func (e *CleanupError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCleanupFailed}
	}
	return []error{ErrCleanupFailed, e.Cause}
}

// Sentinel errors for upload failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrPayloadTooLarge indicates the sanitized body exceeds the maximum object size
	ErrPayloadTooLarge = errors.New("chunkupload: payload too large")

	// ErrUnsupportedBodyType indicates the byte length of the body cannot be determined
	ErrUnsupportedBodyType = errors.New("chunkupload: unsupported body type")

	// ErrSessionCreationFailed indicates the store rejected multipart upload initiation
	ErrSessionCreationFailed = errors.New("chunkupload: multipart session creation failed")

	// ErrPartUploadFailed indicates a part transfer failed
	ErrPartUploadFailed = errors.New("chunkupload: part upload failed")

	// ErrFinalizationFailed indicates the completion call failed after all parts succeeded
	ErrFinalizationFailed = errors.New("chunkupload: multipart finalization failed")

	// ErrCleanupFailed indicates parts remained on the store after the upload was aborted
	ErrCleanupFailed = errors.New("chunkupload: multipart cleanup failed")

	// ErrUploadFailed indicates a single-request upload failed
	ErrUploadFailed = errors.New("chunkupload: upload failed")

	// ErrTooManyParts indicates the payload cannot be split within the part count limit
	ErrTooManyParts = errors.New("chunkupload: too many parts")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("chunkupload: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("chunkupload: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("chunkupload: invalid object key")

	// ErrInvalidConfig indicates a configuration error prevents the operation
	ErrInvalidConfig = errors.New("chunkupload: invalid configuration")
)

// IsCleanupFailed reports whether err signals orphaned parts on the store.
func IsCleanupFailed(err error) bool {
	return errors.Is(err, ErrCleanupFailed)
}

// IsPayloadTooLarge checks if an error indicates the payload exceeded the object size limit.
func IsPayloadTooLarge(err error) bool {
	return errors.Is(err, ErrPayloadTooLarge)
}

// IsInvalidInput checks if an error indicates invalid input, including invalid bucket
// names and object keys.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidBucketName) ||
		errors.Is(err, ErrInvalidObjectKey)
}
