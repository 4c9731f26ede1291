//go:build integration
// +build integration

package chunkupload_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/store"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

const mib = 1024 * 1024

// failingStore fails one part after the others have been accepted by the backend.
type failingStore struct {
	store.ObjectStore
	failPart int32
}

func (f *failingStore) UploadPart(
	ctx context.Context,
	target store.Target,
	uploadID string,
	partNumber int32,
	body io.ReadSeeker,
	size int64,
) (string, error) {
	if partNumber == f.failPart {
		return "", fmt.Errorf("injected failure for part %d", partNumber)
	}
	return f.ObjectStore.UploadPart(ctx, target, uploadID, partNumber, body, size)
}

func TestIntegrationLocalStack(t *testing.T) {
	ctx := context.Background()
	ep := testutil.StartLocalStack(ctx, t)

	raw, err := ep.S3Client(ctx)
	require.NoError(t, err)
	bucket := testutil.GenerateTestBucketName("chunkupload")
	require.NoError(t, testutil.CreateBucket(ctx, raw, bucket))

	client, err := chunkupload.New(
		chunkupload.WithRegion(ep.Region),
		chunkupload.WithEndpoint(ep.URL),
		chunkupload.WithForcePathStyle(true),
		chunkupload.WithCredentials(ep.AccessKeyID, ep.SecretAccessKey, ""),
		chunkupload.WithQueueSize(2),
	)
	require.NoError(t, err)
	defer client.Close()

	t.Run("single request", func(t *testing.T) {
		key := testutil.GenerateTestKey("small") + ".json"
		_, err := client.Upload(ctx, bucket, key, map[string]int{"answer": 42},
			chunkupload.WithMetadata(map[string]string{"origin": "integration"}),
		)
		require.NoError(t, err)

		head, err := raw.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		require.NoError(t, err)
		assert.Equal(t, "application/json", aws.ToString(head.ContentType))
		assert.Equal(t, "integration", head.Metadata["origin"])
	})

	t.Run("multipart", func(t *testing.T) {
		key := testutil.GenerateTestKey("multipart")
		data := testutil.GeneratePatternData(17 * mib)

		var last uploadtypes.ProgressEvent
		res, err := client.Upload(ctx, bucket, key, bytes.NewReader(data),
			chunkupload.WithProgressFunc(func(e uploadtypes.ProgressEvent) { last = e }),
		)
		require.NoError(t, err)
		assert.Equal(t, 4, res.Parts)
		assert.Equal(t, int64(len(data)), last.Loaded)

		out, err := raw.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		require.NoError(t, err)
		defer out.Body.Close()
		got, err := io.ReadAll(out.Body)
		require.NoError(t, err)
		testutil.AssertBytesEqual(t, data, got)
	})

	t.Run("failed part aborts the session", func(t *testing.T) {
		failing, err := chunkupload.NewWithStore(
			&failingStore{ObjectStore: client.Store(), failPart: 3},
			chunkupload.WithQueueSize(2),
		)
		require.NoError(t, err)

		key := testutil.GenerateTestKey("aborted")
		_, err = failing.Upload(ctx, bucket, key, testutil.GeneratePatternData(16*mib))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrPartUploadFailed)
		assert.False(t, errors.IsCleanupFailed(err), "abort should leave no parts behind")

		pending, err := testutil.PendingUploads(ctx, raw, bucket)
		require.NoError(t, err)
		assert.Zero(t, pending)

		_, err = raw.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		assert.Error(t, err, "no object is created")
	})
}

func TestIntegrationMinio(t *testing.T) {
	ctx := context.Background()
	ep := testutil.StartMinio(ctx, t)

	raw, err := ep.MinioClient()
	require.NoError(t, err)
	bucket := testutil.GenerateTestBucketName("chunkupload")
	require.NoError(t, raw.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))

	client, err := chunkupload.New(
		chunkupload.WithMinio(ep.URL),
		chunkupload.WithRegion(ep.Region),
		chunkupload.WithCredentials(ep.AccessKeyID, ep.SecretAccessKey, ""),
	)
	require.NoError(t, err)
	defer client.Close()

	t.Run("multipart with tags", func(t *testing.T) {
		key := testutil.GenerateTestKey("minio") + ".bin"
		data := testutil.GeneratePatternData(11 * mib)

		res, err := client.Upload(ctx, bucket, key, data,
			chunkupload.WithTags(map[string]string{"suite": "integration"}),
			chunkupload.WithContentType("application/x-test"),
		)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Parts)

		info, err := raw.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), info.Size)
		assert.Equal(t, "application/x-test", info.ContentType)

		tags, err := raw.GetObjectTagging(ctx, bucket, key, minio.GetObjectTaggingOptions{})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"suite": "integration"}, tags.ToMap())
	})

	t.Run("failed part aborts the session", func(t *testing.T) {
		failing, err := chunkupload.NewWithStore(
			&failingStore{ObjectStore: client.Store(), failPart: 2},
			chunkupload.WithCleanupVerifyAttempts(3, 0),
		)
		require.NoError(t, err)

		key := testutil.GenerateTestKey("minio-aborted")
		_, err = failing.Upload(ctx, bucket, key, testutil.GeneratePatternData(12*mib))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrPartUploadFailed)
		assert.False(t, errors.IsCleanupFailed(err))

		for upload := range raw.ListIncompleteUploads(ctx, bucket, key, true) {
			require.NoError(t, upload.Err)
			t.Errorf("upload %s was not aborted", upload.UploadID)
		}
	})
}
