package testutil

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// GenerateRandomData generates random bytes of the specified size.
// This is useful for creating test payloads.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GeneratePatternData generates deterministic bytes where every byte encodes its offset.
// Reassembled parts can be compared against it without holding a second copy.
func GeneratePatternData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// StreamOnly hides every interface of r except io.Reader so the sanitizer
// treats it as a stream of unknown length.
func StreamOnly(r io.Reader) io.Reader {
	return struct{ io.Reader }{r}
}

// GenerateTestKey generates a test object key with optional prefix.
// This helps ensure test isolation by using unique keys.
func GenerateTestKey(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%stest-object-%s", prefix, uuid.NewString())
}

// GenerateTestBucketName generates a valid, DNS-compliant test bucket name.
func GenerateTestBucketName(prefix string) string {
	name := fmt.Sprintf("%s-%d-%d", prefix, time.Now().Unix(), rand.Int31n(10000))
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// GenerateCustomerKey returns a random 256-bit SSE-C key and its MD5, both base64 encoded.
func GenerateCustomerKey() (key, keyMD5 string) {
	raw := GenerateRandomData(32)
	sum := md5.Sum(raw)
	return base64.StdEncoding.EncodeToString(raw), base64.StdEncoding.EncodeToString(sum[:])
}

// LogEntry is a captured log record.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogCapture is a slog.Handler that keeps every record in memory.
type LogCapture struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
}

// NewLogCapture returns a handler and a logger writing to it.
func NewLogCapture() (*LogCapture, *slog.Logger) {
	h := &LogCapture{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
	return h, slog.New(h)
}

// Enabled accepts every level.
func (h *LogCapture) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle records the entry.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{Level: r.Level, Message: r.Message, Attrs: map[string]string{}}
	for _, a := range h.attrs {
		entry.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.String()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = append(*h.entries, entry)
	return nil
}

// WithAttrs returns a handler sharing the same sink with extra attributes.
func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogCapture{
		mu:      h.mu,
		entries: h.entries,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

// WithGroup ignores groups.
func (h *LogCapture) WithGroup(_ string) slog.Handler {
	return h
}

// Entries returns a copy of the captured records.
func (h *LogCapture) Entries() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogEntry(nil), *h.entries...)
}

// Find returns the first entry with the given message.
func (h *LogCapture) Find(message string) (LogEntry, bool) {
	for _, e := range h.Entries() {
		if e.Message == message {
			return e, true
		}
	}
	return LogEntry{}, false
}

// AssertBytesEqual fails the test with a short diff summary when a and b differ.
// It avoids dumping multi-megabyte payloads into test output.
func AssertBytesEqual(t *testing.T, want, got []byte) {
	t.Helper()
	if bytes.Equal(want, got) {
		return
	}
	if len(want) != len(got) {
		t.Fatalf("payload length mismatch: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("payload mismatch at offset %d: want %#x, got %#x", i, want[i], got[i])
		}
	}
}
