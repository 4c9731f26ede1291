package parts

import (
	"fmt"
	"io"

	uperrors "github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/errors"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// Part is a contiguous byte range of the payload.
// It is owned by the goroutine transferring it until the batch completes.
type Part struct {
	// Number is the 1-based part number
	Number int32

	// Offset is the byte offset of the part within the payload
	Offset int64

	// Size is the byte length of the part
	Size int64

	// Body is a view over the payload range; no bytes are copied
	Body *io.SectionReader

	// ETag is set once the store acknowledges the part
	ETag string
}

// Count returns ceil(total/partSize).
func Count(total, partSize int64) int64 {
	if total <= 0 || partSize <= 0 {
		return 0
	}
	return (total + partSize - 1) / partSize
}

// Split cuts src into ordered parts of partSize bytes. Every part except the
// last is exactly partSize long.
func Split(src io.ReaderAt, total, partSize int64) []Part {
	n := Count(total, partSize)
	out := make([]Part, 0, n)
	for i := int64(0); i < n; i++ {
		offset := i * partSize
		size := partSize
		if offset+size > total {
			size = total - offset
		}
		out = append(out, Part{
			Number: int32(i + 1),
			Offset: offset,
			Size:   size,
			Body:   io.NewSectionReader(src, offset, size),
		})
	}
	return out
}

// SelectSize picks the part size for a payload of total bytes. It starts at the
// default part size and doubles it until the part count fits within the limit.
// The result never exceeds the maximum part size.
func SelectSize(limits uploadtypes.Limits, total int64) (int64, error) {
	if limits.DefaultPartSize <= 0 || limits.MaxPartCount <= 0 {
		return 0, uperrors.NewError("selectPartSize", uperrors.ErrInvalidConfig).
			WithMessage("part size and part count limits must be positive")
	}
	if limits.MaxObjectSize > 0 && total > limits.MaxObjectSize {
		return 0, uperrors.NewKindError("selectPartSize", uperrors.ErrPayloadTooLarge, nil).
			WithMessage(fmt.Sprintf("payload of %d bytes exceeds maximum object size of %d bytes", total, limits.MaxObjectSize))
	}

	maxParts := int64(limits.MaxPartCount)
	size := limits.DefaultPartSize
	for Count(total, size) > maxParts {
		if limits.MaxPartSize > 0 && size >= limits.MaxPartSize {
			break
		}
		size *= 2
	}
	if limits.MaxPartSize > 0 && size > limits.MaxPartSize {
		size = limits.MaxPartSize
	}

	if n := Count(total, size); n > maxParts {
		return 0, uperrors.NewKindError("selectPartSize", uperrors.ErrTooManyParts, nil).
			WithMessage(fmt.Sprintf("%d bytes need %d parts of %d bytes, limit is %d", total, n, size, maxParts))
	}
	return size, nil
}
