package parts

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uperrors "github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

const mib = int64(1024 * 1024)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		partSize  int64
		wantSizes []int64
	}{
		{"exact multiple", 12, 4, []int64{4, 4, 4}},
		{"short last part", 10, 4, []int64{4, 4, 2}},
		{"single part", 3, 4, []int64{3}},
		{"one byte over", 5, 4, []int64{4, 1}},
		{"empty", 0, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.total)
			for i := range data {
				data[i] = byte(i)
			}

			got := Split(bytes.NewReader(data), tt.total, tt.partSize)
			require.Len(t, got, len(tt.wantSizes))

			var reassembled []byte
			for i, p := range got {
				assert.Equal(t, int32(i+1), p.Number, "parts are numbered contiguously from 1")
				assert.Equal(t, int64(i)*tt.partSize, p.Offset)
				assert.Equal(t, tt.wantSizes[i], p.Size)
				assert.Equal(t, p.Size, p.Body.Size())

				chunk, err := io.ReadAll(p.Body)
				require.NoError(t, err)
				reassembled = append(reassembled, chunk...)
			}
			assert.Equal(t, data, append([]byte{}, reassembled...))
		})
	}
}

func TestSplit_ViewsDoNotCopy(t *testing.T) {
	data := []byte("aaaabbbb")
	got := Split(bytes.NewReader(data), 8, 4)
	require.Len(t, got, 2)

	data[4] = 'X'
	chunk, err := io.ReadAll(got[1].Body)
	require.NoError(t, err)
	assert.Equal(t, "Xbbb", string(chunk))
}

func TestCount(t *testing.T) {
	assert.Equal(t, int64(0), Count(0, 5))
	assert.Equal(t, int64(1), Count(5, 5))
	assert.Equal(t, int64(2), Count(6, 5))
	assert.Equal(t, int64(0), Count(6, 0))
}

func TestSelectSize(t *testing.T) {
	limits := uploadtypes.DefaultLimits()

	tests := []struct {
		name  string
		total int64
		want  int64
	}{
		{"default threshold plus one", 5*mib + 1, 5 * mib},
		{"just at default capacity", 10000 * 5 * mib, 5 * mib},
		{"one byte past default capacity", 10000*5*mib + 1, 10 * mib},
		{"needs four doublings", 10000*40*mib + 1, 80 * mib},
		{"maximum object", uploadtypes.DefaultMaxObjectSize, 640 * mib},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectSize(limits, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, Count(tt.total, got), int64(limits.MaxPartCount))
			assert.LessOrEqual(t, got, limits.MaxPartSize)
		})
	}
}

func TestSelectSize_Monotonic(t *testing.T) {
	limits := uploadtypes.DefaultLimits()

	prev := int64(0)
	for total := int64(1); total <= uploadtypes.DefaultMaxObjectSize; total = total*3 + 7 {
		got, err := SelectSize(limits, total)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "part size must not shrink as total grows (total=%d)", total)
		prev = got
	}
}

func TestSelectSize_Errors(t *testing.T) {
	t.Run("payload too large", func(t *testing.T) {
		_, err := SelectSize(uploadtypes.DefaultLimits(), uploadtypes.DefaultMaxObjectSize+1)
		require.Error(t, err)
		assert.ErrorIs(t, err, uperrors.ErrPayloadTooLarge)
	})

	t.Run("part size cap cannot satisfy count", func(t *testing.T) {
		limits := uploadtypes.Limits{
			DefaultPartSize: 4,
			MaxPartSize:     8,
			MaxPartCount:    2,
		}
		_, err := SelectSize(limits, 17)
		require.Error(t, err)
		assert.ErrorIs(t, err, uperrors.ErrTooManyParts)
	})

	t.Run("cap reached exactly", func(t *testing.T) {
		limits := uploadtypes.Limits{
			DefaultPartSize: 4,
			MaxPartSize:     8,
			MaxPartCount:    2,
		}
		got, err := SelectSize(limits, 16)
		require.NoError(t, err)
		assert.Equal(t, int64(8), got)
	})

	t.Run("invalid limits", func(t *testing.T) {
		_, err := SelectSize(uploadtypes.Limits{}, 10)
		require.Error(t, err)
		assert.ErrorIs(t, err, uperrors.ErrInvalidConfig)
	})
}
