package body

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uperrors "github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
)

func readAll(t *testing.T, p *Payload) []byte {
	t.Helper()
	data, err := io.ReadAll(p.Section())
	require.NoError(t, err)
	return data
}

func TestSanitize_Kinds(t *testing.T) {
	partlyRead := bytes.NewReader([]byte("0123456789"))
	_, _ = partlyRead.Read(make([]byte, 4))

	partlyReadText := strings.NewReader("abcdef")
	_, _ = partlyReadText.Read(make([]byte, 2))

	buffer := bytes.NewBufferString("buffered")

	tests := []struct {
		name        string
		body        any
		wantKind    Kind
		wantData    string
		contentType string
	}{
		{name: "nil", body: nil, wantKind: Empty, wantData: ""},
		{name: "bytes", body: []byte("hello"), wantKind: Bytes, wantData: "hello"},
		{name: "empty bytes", body: []byte{}, wantKind: Bytes, wantData: ""},
		{name: "string", body: "héllo", wantKind: Text, wantData: "héllo"},
		{name: "bytes reader remainder", body: partlyRead, wantKind: Bytes, wantData: "456789"},
		{name: "strings reader remainder", body: partlyReadText, wantKind: Text, wantData: "cdef"},
		{name: "bytes buffer", body: buffer, wantKind: Bytes, wantData: "buffered"},
		{
			name:     "section reader",
			body:     io.NewSectionReader(strings.NewReader("xxpayloadxx"), 2, 7),
			wantKind: Bytes,
			wantData: "payload",
		},
		{name: "stream", body: io.MultiReader(strings.NewReader("ab"), strings.NewReader("cd")), wantKind: Stream, wantData: "abcd"},
		{
			name:        "map sorted keys",
			body:        map[string]any{"z": 1, "a": "<b>", "m": []int{1, 2}},
			wantKind:    Structured,
			wantData:    `{"a":"<b>","m":[1,2],"z":1}`,
			contentType: JSONContentType,
		},
		{
			name: "struct",
			body: struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			}{"x", 2},
			wantKind:    Structured,
			wantData:    `{"name":"x","count":2}`,
			contentType: JSONContentType,
		},
		{name: "slice", body: []string{"a", "b"}, wantKind: Structured, wantData: `["a","b"]`, contentType: JSONContentType},
		{name: "pointer to struct", body: &struct {
			ID int `json:"id"`
		}{7}, wantKind: Structured, wantData: `{"id":7}`, contentType: JSONContentType},
		{name: "nil bytes reader", body: (*bytes.Reader)(nil), wantKind: Empty, wantData: ""},
		{name: "nil strings reader", body: (*strings.Reader)(nil), wantKind: Empty, wantData: ""},
		{name: "nil bytes buffer", body: (*bytes.Buffer)(nil), wantKind: Empty, wantData: ""},
		{name: "nil section reader", body: (*io.SectionReader)(nil), wantKind: Empty, wantData: ""},
		{name: "nil file", body: (*os.File)(nil), wantKind: Empty, wantData: ""},
		{name: "nil struct pointer", body: (*struct{ A int })(nil), wantKind: Empty, wantData: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Sanitize(tt.body, 1024)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, p.Kind)
			assert.Equal(t, int64(len(tt.wantData)), p.Size)
			assert.Equal(t, tt.wantData, string(readAll(t, p)))
			assert.Equal(t, tt.contentType, p.ContentType)
		})
	}
}

func TestSanitize_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	p, err := Sanitize(f, 1024)
	require.NoError(t, err)
	assert.Equal(t, Bytes, p.Kind)
	assert.Equal(t, int64(13), p.Size)
	assert.Equal(t, "file contents", string(readAll(t, p)))
}

func TestSanitize_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"channel", make(chan int)},
		{"func", func() {}},
		{"complex", complex(1, 2)},
		{"int", 42},
		{"bool", true},
		{"float", 3.5},
		{"pointer to int", new(int)},
		{"map with func", map[string]any{"f": func() {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(tt.body, 1024)
			require.Error(t, err)
			assert.ErrorIs(t, err, uperrors.ErrUnsupportedBodyType)
			assert.Equal(t, uperrors.CodeUnsupportedBody, uperrors.Code(err))
		})
	}
}

func TestSanitize_TooLarge(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"bytes", make([]byte, 11)},
		{"string", strings.Repeat("a", 11)},
		{"stream", io.MultiReader(bytes.NewReader(make([]byte, 100)))},
		{"structured", map[string]string{"key": "value"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(tt.body, 10)
			require.Error(t, err)
			assert.ErrorIs(t, err, uperrors.ErrPayloadTooLarge)
			assert.Contains(t, err.Error(), "10 bytes")
		})
	}
}

func TestSanitize_ExactlyMaxSize(t *testing.T) {
	p, err := Sanitize(io.MultiReader(bytes.NewReader(make([]byte, 10))), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Size)
}

func TestSanitize_StreamReadsAtMostMaxPlusOne(t *testing.T) {
	counter := &countingReader{r: bytes.NewReader(make([]byte, 1<<20))}
	_, err := Sanitize(counter, 100)
	require.Error(t, err)
	assert.Equal(t, int64(101), counter.n)
}

func TestSanitize_StreamReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := Sanitize(io.MultiReader(strings.NewReader("ab"), &failingReader{err: boom}), 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, uperrors.ErrUnsupportedBodyType)
}

func TestSanitize_NoLimit(t *testing.T) {
	p, err := Sanitize(make([]byte, 50), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(50), p.Size)
}

func TestPayload_Head(t *testing.T) {
	p, err := Sanitize(bytes.Repeat([]byte("x"), 5000), 0)
	require.NoError(t, err)
	assert.Len(t, p.Head(), sniffLen)

	empty, err := Sanitize(nil, 0)
	require.NoError(t, err)
	assert.Nil(t, empty.Head())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "stream", Stream.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type failingReader struct{ err error }

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }
