package errors

import "errors"

// ErrorCode represents a specific upload error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodePayloadTooLarge indicates the payload exceeds the maximum object size.
	CodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"

	// CodeUnsupportedBody indicates the payload length cannot be determined.
	CodeUnsupportedBody ErrorCode = "UNSUPPORTED_BODY_TYPE"

	// CodeTooManyParts indicates the payload cannot be split within the part count limit.
	CodeTooManyParts ErrorCode = "TOO_MANY_PARTS"

	// Transfer errors.

	// CodeUploadFailed indicates a single-request upload failed.
	CodeUploadFailed ErrorCode = "UPLOAD_FAILED"

	// CodeSessionCreationFailed indicates the store rejected multipart initiation.
	CodeSessionCreationFailed ErrorCode = "SESSION_CREATION_FAILED"

	// CodePartUploadFailed indicates a part transfer failed.
	CodePartUploadFailed ErrorCode = "PART_UPLOAD_FAILED"

	// CodeFinalizationFailed indicates the completion call failed.
	CodeFinalizationFailed ErrorCode = "FINALIZATION_FAILED"

	// CodeCleanupFailed indicates parts were left behind after an abort.
	// Callers should alert on this code: it means orphaned storage.
	CodeCleanupFailed ErrorCode = "CLEANUP_FAILED"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// codeOrder is checked first to last; CLEANUP_FAILED wins over the triggering error.
var codeOrder = []struct {
	sentinel error
	code     ErrorCode
}{
	{ErrCleanupFailed, CodeCleanupFailed},
	{ErrPayloadTooLarge, CodePayloadTooLarge},
	{ErrUnsupportedBodyType, CodeUnsupportedBody},
	{ErrTooManyParts, CodeTooManyParts},
	{ErrSessionCreationFailed, CodeSessionCreationFailed},
	{ErrPartUploadFailed, CodePartUploadFailed},
	{ErrFinalizationFailed, CodeFinalizationFailed},
	{ErrUploadFailed, CodeUploadFailed},
	{ErrInvalidConfig, CodeInvalidConfig},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrInvalidBucketName, CodeInvalidInput},
	{ErrInvalidObjectKey, CodeInvalidInput},
}

// Code classifies err into an ErrorCode.
// It returns an empty code for a nil error and CodeUnknown for errors outside the taxonomy.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	for _, c := range codeOrder {
		if errors.Is(err, c.sentinel) {
			return c.code
		}
	}
	return CodeUnknown
}
