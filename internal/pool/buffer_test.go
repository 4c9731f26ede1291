package pool

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPool_GetTiers(t *testing.T) {
	bp := NewBufferPool()

	small := bp.Get(1024)
	assert.Len(t, *small, SmallBufferSize)
	bp.Put(small)

	large := bp.Get(0)
	assert.Len(t, *large, LargeBufferSize)
	bp.Put(large)

	huge := bp.Get(10 * LargeBufferSize)
	assert.Len(t, *huge, LargeBufferSize)
	bp.Put(huge)

	foreign := make([]byte, 12)
	bp.Put(&foreign)
	bp.Put(nil)
}

func TestBufferPool_Copy(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int64
		want  string
	}{
		{"unbounded", "hello world", -1, "hello world"},
		{"bounded", "hello world", 5, "hello"},
		{"limit above size", "hi", 100, "hi"},
		{"empty", "", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst bytes.Buffer
			n, err := Copy(&dst, strings.NewReader(tt.input), tt.limit, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), n)
			assert.Equal(t, tt.want, dst.String())
		})
	}
}

func TestBufferPool_CopyLargerThanBuffer(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), LargeBufferSize/4)

	var dst bytes.Buffer
	n, err := NewBufferPool().Copy(&dst, bytes.NewReader(data), -1, int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.True(t, bytes.Equal(data, dst.Bytes()))
}
