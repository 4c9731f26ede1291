package body

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	iofs "io/fs"
	"reflect"
	"strings"

	uperrors "github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/pool"
)

// Kind classifies the caller's body.
type Kind int

const (
	// Empty is a nil body.
	Empty Kind = iota
	// Bytes is binary data addressable by offset.
	Bytes
	// Text is string data addressable by offset.
	Text
	// Stream is a reader of unknown length, buffered once.
	Stream
	// Structured is any other value, encoded as JSON.
	Structured
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Bytes:
		return "bytes"
	case Text:
		return "text"
	case Stream:
		return "stream"
	case Structured:
		return "structured"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// JSONContentType is the default content type for structured bodies.
const JSONContentType = "application/json"

// sniffLen is how many leading bytes Head returns for content detection.
const sniffLen = 3072

// Payload is a sanitized body.
type Payload struct {
	// Kind is the classification of the original body
	Kind Kind

	// Size is the exact byte length
	Size int64

	// ContentType is a default implied by the body kind, empty when none
	ContentType string

	data io.ReaderAt
}

// ReaderAt returns the range-addressable view of the payload.
func (p *Payload) ReaderAt() io.ReaderAt {
	return p.data
}

// Section returns a fresh reader over the whole payload.
func (p *Payload) Section() *io.SectionReader {
	return io.NewSectionReader(p.data, 0, p.Size)
}

// Head returns up to the first few kilobytes of the payload for content sniffing.
func (p *Payload) Head() []byte {
	n := p.Size
	if n > sniffLen {
		n = sniffLen
	}
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	read, err := p.data.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil
	}
	return buf[:read]
}

type sizedReaderAt interface {
	io.ReaderAt
	Size() int64
}

type statReaderAt interface {
	io.ReaderAt
	Stat() (iofs.FileInfo, error)
}

// Sanitize resolves body into a Payload and rejects payloads larger than maxSize.
// A maxSize of zero or less disables the size check.
func Sanitize(body any, maxSize int64) (*Payload, error) {
	p, err := resolve(body, maxSize)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && p.Size > maxSize {
		return nil, tooLarge(p.Size, maxSize)
	}
	return p, nil
}

func resolve(body any, maxSize int64) (*Payload, error) {
	// typed nil pointers behave like a nil body
	if isNilPointer(body) {
		return empty(), nil
	}

	switch b := body.(type) {
	case nil:
		return empty(), nil

	case []byte:
		return &Payload{Kind: Bytes, Size: int64(len(b)), data: bytes.NewReader(b)}, nil

	case string:
		return &Payload{Kind: Text, Size: int64(len(b)), data: strings.NewReader(b)}, nil

	case *bytes.Buffer:
		unread := b.Bytes()
		return &Payload{Kind: Bytes, Size: int64(len(unread)), data: bytes.NewReader(unread)}, nil

	case *bytes.Reader:
		// Unread remainder only; ReadAt on bytes.Reader ignores the read position.
		off := b.Size() - int64(b.Len())
		return &Payload{Kind: Bytes, Size: int64(b.Len()), data: io.NewSectionReader(b, off, int64(b.Len()))}, nil

	case *strings.Reader:
		off := b.Size() - int64(b.Len())
		return &Payload{Kind: Text, Size: int64(b.Len()), data: io.NewSectionReader(b, off, int64(b.Len()))}, nil

	case sizedReaderAt:
		return &Payload{Kind: Bytes, Size: b.Size(), data: b}, nil

	case statReaderAt:
		info, err := b.Stat()
		if err != nil {
			return nil, uperrors.NewKindError("sanitize", uperrors.ErrUnsupportedBodyType, err).
				WithMessage("cannot determine body length")
		}
		if info.IsDir() {
			return nil, uperrors.NewKindError("sanitize", uperrors.ErrUnsupportedBodyType, nil).
				WithMessage("body is a directory")
		}
		return &Payload{Kind: Bytes, Size: info.Size(), data: b}, nil

	case io.Reader:
		return drain(b, maxSize)

	default:
		if !isStructured(reflect.TypeOf(body)) {
			return nil, uperrors.NewKindError("sanitize", uperrors.ErrUnsupportedBodyType, nil).
				WithMessage(fmt.Sprintf("cannot determine length of %T body", body))
		}
		return encode(body)
	}
}

func empty() *Payload {
	return &Payload{Kind: Empty, data: bytes.NewReader(nil)}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// isStructured reports whether t is an object-like value: a map, struct,
// slice or array, possibly behind pointers. Scalars have no body length.
func isStructured(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// drain buffers a stream of unknown length, reading at most maxSize+1 bytes.
func drain(r io.Reader, maxSize int64) (*Payload, error) {
	var hint int64
	if l, ok := r.(interface{ Len() int }); ok {
		hint = int64(l.Len())
	}

	limit := int64(-1)
	if maxSize > 0 {
		limit = maxSize + 1
	}

	var buf bytes.Buffer
	if hint > 0 {
		buf.Grow(int(hint))
	}
	n, err := pool.Copy(&buf, r, limit, hint)
	if err != nil {
		return nil, uperrors.NewKindError("sanitize", uperrors.ErrUnsupportedBodyType, err).
			WithMessage("failed to read body stream")
	}
	if maxSize > 0 && n > maxSize {
		return nil, uperrors.NewKindError("sanitize", uperrors.ErrPayloadTooLarge, nil).
			WithMessage(fmt.Sprintf("stream exceeds maximum object size of %d bytes", maxSize))
	}

	data := buf.Bytes()
	return &Payload{Kind: Stream, Size: int64(len(data)), data: bytes.NewReader(data)}, nil
}

// encode serializes structured values as JSON. Map keys are emitted in sorted
// order so the same value always produces the same bytes.
func encode(v any) (*Payload, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, uperrors.NewKindError("sanitize", uperrors.ErrUnsupportedBodyType, err).
			WithMessage(fmt.Sprintf("cannot determine length of %T body", v))
	}

	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return &Payload{
		Kind:        Structured,
		Size:        int64(len(data)),
		ContentType: JSONContentType,
		data:        bytes.NewReader(data),
	}, nil
}

func tooLarge(size, maxSize int64) error {
	return uperrors.NewKindError("sanitize", uperrors.ErrPayloadTooLarge, nil).
		WithMessage(fmt.Sprintf("payload of %d bytes exceeds maximum object size of %d bytes", size, maxSize))
}
