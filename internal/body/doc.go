// Package body normalizes upload payloads into a sized, range-addressable form.
//
// Every supported body is resolved once into a Payload: a length and an
// io.ReaderAt the part splitter can cut views from without copying. Only
// streams of unknown length are read into memory, bounded by the maximum
// object size.
//
// Sanitize accepts byte slices, strings, readers, files and structured values,
// and reports unsupported bodies as ErrUnsupportedBodyType.
package body
