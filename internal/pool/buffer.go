package pool

import (
	"io"
	"sync"
)

const (
	// SmallBufferSize is used for payloads expected to fit in a single request (32KB)
	SmallBufferSize = 32 * 1024
	// LargeBufferSize is used for multipart-sized streams (1MB)
	LargeBufferSize = 1024 * 1024
)

// BufferPool hands out fixed-size copy buffers in two tiers.
type BufferPool struct {
	small *sync.Pool
	large *sync.Pool
}

// NewBufferPool creates a pool with the default tiers.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small: &sync.Pool{
			New: func() any {
				buf := make([]byte, SmallBufferSize)
				return &buf
			},
		},
		large: &sync.Pool{
			New: func() any {
				buf := make([]byte, LargeBufferSize)
				return &buf
			},
		},
	}
}

// Get returns a buffer sized for a copy of roughly hint bytes.
// A non-positive hint means the size is unknown and yields a large buffer.
// The caller must hand the buffer back with Put.
func (bp *BufferPool) Get(hint int64) *[]byte {
	if hint > 0 && hint <= SmallBufferSize*4 {
		return bp.small.Get().(*[]byte)
	}
	return bp.large.Get().(*[]byte)
}

// Put returns a buffer obtained from Get. Foreign sizes are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	switch len(*buf) {
	case SmallBufferSize:
		bp.small.Put(buf)
	case LargeBufferSize:
		bp.large.Put(buf)
	}
}

// Copy copies from src to dst using a pooled buffer, stopping after limit bytes.
// It returns the number of bytes copied. A limit below zero copies until EOF.
func (bp *BufferPool) Copy(dst io.Writer, src io.Reader, limit, hint int64) (int64, error) {
	buf := bp.Get(hint)
	defer bp.Put(buf)

	if limit >= 0 {
		src = io.LimitReader(src, limit)
	}
	// Hide ReaderFrom/WriterTo so the pooled buffer is actually used.
	return io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, *buf)
}

var globalBufferPool = NewBufferPool()

// Copy copies from src to dst using the package-level pool.
func Copy(dst io.Writer, src io.Reader, limit, hint int64) (int64, error) {
	return globalBufferPool.Copy(dst, src, limit, hint)
}
