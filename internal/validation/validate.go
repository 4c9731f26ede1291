package validation

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

const (
	maxKeyLength           = 1024
	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
	maxTags                = 10
	maxTagKeyLength        = 128
	maxTagValueLength      = 256
	customerKeyLength      = 32

	// minPartSize is the smallest part S3-compatible stores accept for all but the last part
	minPartSize = 5 * 1024 * 1024
)

var mimePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)

// ValidateBucketName validates that a bucket name is DNS-compliant according to S3 rules.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	if bucket == "" {
		return bucketError(bucket, "bucket name cannot be empty")
	}
	if len(bucket) < 3 || len(bucket) > 63 {
		return bucketError(bucket, "bucket name must be between 3 and 63 characters long")
	}

	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return bucketError(bucket, "bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	first, last := bucket[0], bucket[len(bucket)-1]
	if first == '-' || first == '.' || last == '-' || last == '.' {
		return bucketError(bucket, "bucket name cannot start or end with a hyphen or dot")
	}
	if isIPAddress(bucket) {
		return bucketError(bucket, "bucket name cannot be formatted as an IP address")
	}
	if strings.Contains(bucket, "..") {
		return bucketError(bucket, "bucket name cannot contain two adjacent periods")
	}
	if strings.HasPrefix(bucket, "xn--") || strings.HasSuffix(bucket, "-s3alias") {
		return bucketError(bucket, "bucket name uses a reserved prefix or suffix")
	}

	return nil
}

func bucketError(bucket, message string) error {
	return errors.NewKindError("validateBucketName", errors.ErrInvalidBucketName, nil).
		WithBucket(bucket).
		WithMessage(message)
}

// ValidateObjectKey validates that an object key is valid according to S3 rules.
// This includes preventing path traversal and control characters.
func ValidateObjectKey(key string) error {
	if key == "" {
		return keyError(key, "object key cannot be empty")
	}
	if hasPathTraversal(key) {
		return keyError(key, "object key cannot contain path traversal sequences")
	}
	if len(key) > maxKeyLength {
		return keyError(key, "object key cannot exceed 1024 bytes")
	}
	for _, char := range key {
		if unicode.IsControl(char) {
			return keyError(key, "object key cannot contain control characters")
		}
	}
	return nil
}

func keyError(key, message string) error {
	return errors.NewKindError("validateObjectKey", errors.ErrInvalidObjectKey, nil).
		WithKey(key).
		WithMessage(message)
}

// ValidateMetadata validates user metadata keys and values.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if key == "" {
			return inputError("validateMetadata", "metadata key cannot be empty")
		}
		if len(key) > maxMetadataKeyLength {
			return inputError("validateMetadata", "metadata key cannot exceed 128 characters")
		}
		lower := strings.ToLower(key)
		for _, prefix := range []string{"aws:", "x-amz-", "x-amz:"} {
			if strings.HasPrefix(lower, prefix) {
				return inputError("validateMetadata", fmt.Sprintf("metadata key cannot start with reserved prefix: %s", prefix))
			}
		}
		for _, char := range key {
			if char <= ' ' || char > '~' {
				return inputError("validateMetadata", "metadata key can only contain printable ASCII characters without spaces")
			}
		}

		if len(value) > maxMetadataValueLength {
			return inputError("validateMetadata", "metadata value cannot exceed 2048 characters")
		}
		for _, char := range value {
			if !unicode.IsPrint(char) && char != '\t' {
				return inputError("validateMetadata", "metadata value can only contain printable characters")
			}
		}
	}
	return nil
}

// ValidateTags validates object tags against the store's tag limits.
func ValidateTags(tags map[string]string) error {
	if len(tags) > maxTags {
		return inputError("validateTags", fmt.Sprintf("an object can carry at most %d tags", maxTags))
	}
	for key, value := range tags {
		if key == "" {
			return inputError("validateTags", "tag key cannot be empty")
		}
		if len(key) > maxTagKeyLength {
			return inputError("validateTags", "tag key cannot exceed 128 characters")
		}
		if len(value) > maxTagValueLength {
			return inputError("validateTags", "tag value cannot exceed 256 characters")
		}
		if strings.HasPrefix(strings.ToLower(key), "aws:") {
			return inputError("validateTags", "tag key cannot start with reserved prefix: aws:")
		}
	}
	return nil
}

// ValidateContentType validates that a content type is a well-formed MIME type.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	if !mimePattern.MatchString(contentType) {
		return inputError("validateContentType", "content type must be a valid MIME type")
	}
	return nil
}

// ValidateACL validates that an ACL value is a canned ACL.
func ValidateACL(acl uploadtypes.ObjectACL) error {
	switch acl {
	case "",
		uploadtypes.ACLPrivate,
		uploadtypes.ACLPublicRead,
		uploadtypes.ACLPublicReadWrite,
		uploadtypes.ACLAuthenticatedRead,
		uploadtypes.ACLOwnerRead,
		uploadtypes.ACLOwnerFullControl:
		return nil
	}
	return inputError("validateACL",
		"ACL must be one of: private, public-read, public-read-write, authenticated-read, bucket-owner-read, bucket-owner-full-control")
}

// ValidateStorageClass validates that a storage class is known.
func ValidateStorageClass(class uploadtypes.StorageClass) error {
	switch class {
	case "",
		uploadtypes.StorageClassStandard,
		uploadtypes.StorageClassReducedRedundancy,
		uploadtypes.StorageClassStandardIA,
		uploadtypes.StorageClassOneZoneIA,
		uploadtypes.StorageClassIntelligentTiering,
		uploadtypes.StorageClassGlacier,
		uploadtypes.StorageClassDeepArchive,
		uploadtypes.StorageClassGlacierIR:
		return nil
	}
	return inputError("validateStorageClass", fmt.Sprintf("unknown storage class %q", class))
}

// ValidateSSE validates server-side encryption parameters. A customer key must
// decode to 256 bits; a supplied key MD5 must match it.
func ValidateSSE(sse *uploadtypes.SSEConfig) error {
	if sse == nil {
		return nil
	}

	switch sse.Type {
	case "", uploadtypes.SSES3, uploadtypes.SSEKMS, uploadtypes.SSEC:
	default:
		return inputError("validateSSE", fmt.Sprintf("unknown encryption type %q", sse.Type))
	}

	if sse.Type == uploadtypes.SSEKMS && sse.CustomerKey != "" {
		return inputError("validateSSE", "customer key cannot be combined with KMS encryption")
	}
	if !sse.IsCustomerKey() {
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(sse.CustomerKey)
	if err != nil {
		return inputError("validateSSE", "customer key must be base64 encoded")
	}
	if len(raw) != customerKeyLength {
		return inputError("validateSSE", fmt.Sprintf("customer key must be %d bytes, got %d", customerKeyLength, len(raw)))
	}
	if sse.CustomerKeyMD5 != "" && sse.CustomerKeyMD5 != CustomerKeyMD5(raw) {
		return inputError("validateSSE", "customer key MD5 does not match the key")
	}
	return nil
}

// CustomerKeyMD5 returns the base64 encoded MD5 digest of a raw customer key.
func CustomerKeyMD5(raw []byte) string {
	sum := md5.Sum(raw) //nolint:gosec // required by the SSE-C wire format
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ValidateAttributes validates every content attribute of an upload.
func ValidateAttributes(attrs *uploadtypes.ObjectAttributes) error {
	if attrs == nil {
		return nil
	}
	checks := []func() error{
		func() error { return ValidateContentType(attrs.ContentType) },
		func() error { return ValidateMetadata(attrs.Metadata) },
		func() error { return ValidateTags(attrs.Tags) },
		func() error { return ValidateACL(attrs.ACL) },
		func() error { return ValidateStorageClass(attrs.StorageClass) },
		func() error { return ValidateSSE(attrs.SSE) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLimits checks that limits are positive and mutually consistent.
func ValidateLimits(l uploadtypes.Limits) error {
	switch {
	case l.DefaultPartSize < minPartSize:
		return configError(fmt.Sprintf("part size must be at least %d bytes", minPartSize))
	case l.MaxPartSize < l.DefaultPartSize:
		return configError("max part size must not be smaller than the part size")
	case l.MaxPartCount <= 0:
		return configError("max part count must be positive")
	case l.MaxObjectSize <= 0:
		return configError("max object size must be positive")
	case l.QueueSize <= 0:
		return configError("queue size must be positive")
	case (l.MaxObjectSize+int64(l.MaxPartCount)-1)/int64(l.MaxPartCount) > l.MaxPartSize:
		return configError("max object size cannot be split within max part count parts of max part size")
	}
	return nil
}

func configError(message string) error {
	return errors.NewKindError("validateLimits", errors.ErrInvalidConfig, nil).WithMessage(message)
}

func inputError(op, message string) error {
	return errors.NewKindError(op, errors.ErrInvalidInput, nil).WithMessage(message)
}

// isValidBucketChar checks if a character is valid in a bucket name
func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// isIPAddress checks if a string is formatted as an IPv4 address
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		num := 0
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
			num = num*10 + int(char-'0')
		}
		if num > 255 {
			return false
		}
	}
	return true
}

// hasPathTraversal checks for path traversal attempts in object keys
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "/") {
		return true
	}

	// Windows-style absolute paths
	return len(cleaned) >= 3 && cleaned[1] == ':' && (cleaned[2] == '\\' || cleaned[2] == '/')
}
