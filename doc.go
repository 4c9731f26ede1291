// Package chunkupload uploads objects to S3-compatible blob stores, switching to
// multipart uploads for payloads larger than one part.
//
// A multipart upload splits the payload into parts, transfers them in fixed
// batches of concurrent requests, and completes the session with an ordered
// manifest. If any step fails the session is aborted and the store is checked
// for leftover parts, so a failed upload does not leave billable state behind.
//
// Key features:
//   - Bodies of any shape: bytes, strings, readers, files, or JSON-encodable values
//   - Range-addressed parts without copying when the body supports io.ReaderAt
//   - Part size chosen automatically within the store's part count limit
//   - Aggregate progress that never goes backwards, even across transport retries
//   - AWS S3 and MinIO backends, or any store.ObjectStore implementation
//
// Example usage:
//
//	client, err := chunkupload.New(chunkupload.WithRegion("us-west-2"))
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.UploadFile(ctx, "my-bucket", "path/file.bin", "/local/file.bin")
//	if err != nil {
//	    if errors.Is(err, chunkuploaderrors.ErrCleanupFailed) {
//	        // parts were left behind on the store
//	    }
//	    return err
//	}
package chunkupload
