package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		errMsg string
	}{
		{"valid_simple", "my-bucket", ""},
		{"valid_with_dots", "my.bucket", ""},
		{"valid_leading_digit", "1bucket", ""},
		{"valid_min_length", "abc", ""},
		{"valid_max_length", strings.Repeat("a", 63), ""},

		{"empty", "", "bucket name cannot be empty"},
		{"too_short", "ab", "bucket name must be between 3 and 63 characters long"},
		{"too_long", strings.Repeat("a", 64), "bucket name must be between 3 and 63 characters long"},
		{"starts_with_hyphen", "-bucket", "cannot start or end with a hyphen or dot"},
		{"ends_with_dot", "bucket.", "cannot start or end with a hyphen or dot"},
		{"uppercase", "MyBucket", "can only contain lowercase letters"},
		{"underscore", "my_bucket", "can only contain lowercase letters"},
		{"ip_address", "192.168.1.1", "cannot be formatted as an IP address"},
		{"double_dots", "my..bucket", "cannot contain two adjacent periods"},
		{"reserved_prefix", "xn--bucket", "reserved prefix or suffix"},
		{"reserved_suffix", "bucket-s3alias", "reserved prefix or suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		errMsg string
	}{
		{"valid_simple", "my-file.txt", ""},
		{"valid_with_path", "folder/subfolder/file.txt", ""},
		{"valid_unicode", "файл.txt", ""},
		{"valid_spaces", "file with spaces.txt", ""},

		{"empty", "", "object key cannot be empty"},
		{"too_long", strings.Repeat("a", 1025), "object key cannot exceed 1024 bytes"},
		{"traversal", "../secret.txt", "path traversal"},
		{"nested_traversal", "folder/../../secret.txt", "path traversal"},
		{"absolute", "/etc/passwd", "path traversal"},
		{"windows_absolute", "C:\\Windows\\system", "path traversal"},
		{"null_byte", "file\x00name", "control characters"},
		{"newline", "file\nname", "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
		errMsg   string
	}{
		{"nil", nil, ""},
		{"valid", map[string]string{"author": "team", "note": "multi\tcolumn"}, ""},
		{"empty_key", map[string]string{"": "v"}, "metadata key cannot be empty"},
		{"long_key", map[string]string{strings.Repeat("k", 129): "v"}, "cannot exceed 128"},
		{"reserved_prefix", map[string]string{"X-Amz-Meta": "v"}, "reserved prefix"},
		{"space_in_key", map[string]string{"my key": "v"}, "printable ASCII"},
		{"long_value", map[string]string{"k": strings.Repeat("v", 2049)}, "cannot exceed 2048"},
		{"control_in_value", map[string]string{"k": "a\x01b"}, "printable characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.metadata)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateTags(t *testing.T) {
	tooMany := map[string]string{}
	for i := 0; i < 11; i++ {
		tooMany[strings.Repeat("k", i+1)] = "v"
	}

	tests := []struct {
		name   string
		tags   map[string]string
		errMsg string
	}{
		{"nil", nil, ""},
		{"valid", map[string]string{"env": "prod", "team": "data eng"}, ""},
		{"too_many", tooMany, "at most 10 tags"},
		{"empty_key", map[string]string{"": "v"}, "tag key cannot be empty"},
		{"long_value", map[string]string{"k": strings.Repeat("v", 257)}, "cannot exceed 256"},
		{"reserved", map[string]string{"aws:owner": "v"}, "reserved prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTags(tt.tags)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateContentType(t *testing.T) {
	for _, ct := range []string{"", "text/plain", "application/json; charset=utf-8", "application/vnd.api+json"} {
		assert.NoError(t, ValidateContentType(ct), ct)
	}
	for _, ct := range []string{"text", "/plain", "text/", "text plain"} {
		assert.ErrorIs(t, ValidateContentType(ct), errors.ErrInvalidInput, ct)
	}
}

func TestValidateACLAndStorageClass(t *testing.T) {
	assert.NoError(t, ValidateACL(""))
	assert.NoError(t, ValidateACL(uploadtypes.ACLOwnerFullControl))
	assert.Error(t, ValidateACL("world-writable"))

	assert.NoError(t, ValidateStorageClass(""))
	assert.NoError(t, ValidateStorageClass(uploadtypes.StorageClassGlacierIR))
	assert.Error(t, ValidateStorageClass("COLD"))
}

func TestValidateSSE(t *testing.T) {
	key, keyMD5 := testutil.GenerateCustomerKey()

	tests := []struct {
		name   string
		sse    *uploadtypes.SSEConfig
		errMsg string
	}{
		{"nil", nil, ""},
		{"s3", &uploadtypes.SSEConfig{Type: uploadtypes.SSES3}, ""},
		{"kms", &uploadtypes.SSEConfig{Type: uploadtypes.SSEKMS, KMSKeyID: "alias/data"}, ""},
		{"customer key", &uploadtypes.SSEConfig{Type: uploadtypes.SSEC, CustomerKey: key}, ""},
		{"customer key with md5", &uploadtypes.SSEConfig{Type: uploadtypes.SSEC, CustomerKey: key, CustomerKeyMD5: keyMD5}, ""},
		{"unknown type", &uploadtypes.SSEConfig{Type: "rot13"}, "unknown encryption type"},
		{"kms with customer key", &uploadtypes.SSEConfig{Type: uploadtypes.SSEKMS, CustomerKey: key}, "cannot be combined"},
		{"missing customer key", &uploadtypes.SSEConfig{Type: uploadtypes.SSEC}, "must be 32 bytes"},
		{"not base64", &uploadtypes.SSEConfig{Type: uploadtypes.SSEC, CustomerKey: "!!"}, "base64"},
		{"short key", &uploadtypes.SSEConfig{Type: uploadtypes.SSEC, CustomerKey: "c2hvcnQ="}, "must be 32 bytes, got 5"},
		{"md5 mismatch", &uploadtypes.SSEConfig{Type: uploadtypes.SSEC, CustomerKey: key, CustomerKeyMD5: "AAAA"}, "MD5 does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSSE(tt.sse)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateAttributes(t *testing.T) {
	assert.NoError(t, ValidateAttributes(nil))
	assert.NoError(t, ValidateAttributes(&uploadtypes.ObjectAttributes{
		ContentType:  "text/csv",
		Metadata:     map[string]string{"source": "export"},
		Tags:         map[string]string{"env": "dev"},
		ACL:          uploadtypes.ACLPrivate,
		StorageClass: uploadtypes.StorageClassStandardIA,
	}))

	err := ValidateAttributes(&uploadtypes.ObjectAttributes{Tags: map[string]string{"": "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag key cannot be empty")
}

func TestValidateLimits(t *testing.T) {
	const mib = int64(1024 * 1024)

	tests := []struct {
		name   string
		mutate func(*uploadtypes.Limits)
		errMsg string
	}{
		{"defaults", func(*uploadtypes.Limits) {}, ""},
		{"part size below store minimum", func(l *uploadtypes.Limits) { l.DefaultPartSize = mib }, "at least"},
		{"max below default", func(l *uploadtypes.Limits) { l.MaxPartSize = 4 * mib; l.DefaultPartSize = 8 * mib }, "max part size"},
		{"zero part count", func(l *uploadtypes.Limits) { l.MaxPartCount = 0 }, "max part count"},
		{"zero object size", func(l *uploadtypes.Limits) { l.MaxObjectSize = 0 }, "max object size must be positive"},
		{"zero queue", func(l *uploadtypes.Limits) { l.QueueSize = 0 }, "queue size"},
		{"object cannot be split", func(l *uploadtypes.Limits) { l.MaxPartCount = 10 }, "cannot be split"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := uploadtypes.DefaultLimits()
			tt.mutate(&l)
			err := ValidateLimits(l)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
