// Package pool provides reusable copy buffers for payload normalization.
//
// Streams of unknown length are drained into memory once before they can be
// split into parts. The copy loop reuses buffers from this pool instead of
// allocating a fresh one per upload.
package pool
