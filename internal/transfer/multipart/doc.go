// Package multipart drives a multipart upload session: create, transfer parts in
// bounded batches, complete, and clean up server-side state on failure.
package multipart
