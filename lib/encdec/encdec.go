package encdec

import (
	"errors"
	"fmt"
	"time"
)

type PixelFormat int

const (
	Unsupported PixelFormat = iota
	DXT1RGB
	DXT5RGBA
	DXT5YCoCg
)

var (
	ErrInvalidFrameGeometry = errors.New("invalid frame geometry")
	ErrUnsupportedFormat    = errors.New("unsupported pixel format")
	ErrBufferTooSmall       = errors.New("frame buffer too small")
)

// BlockSize is the edge length of a DXT compression block in pixels.
const BlockSize = 4

func (f PixelFormat) String() string {
	switch f {
	case DXT1RGB:
		return "DXT1_RGB"
	case DXT5RGBA:
		return "DXT5_RGBA"
	case DXT5YCoCg:
		return "DXT5_YCoCg"
	default:
		return "unsupported"
	}
}

// BitsPerPixel returns the compressed storage cost of one pixel, or 0 for
// formats that cannot be uploaded.
func BitsPerPixel(f PixelFormat) int {
	switch f {
	case DXT1RGB:
		return 4
	case DXT5RGBA, DXT5YCoCg:
		return 8
	default:
		return 0
	}
}

// BytesPerRow is the length of one pixel row of a padded frame. The row
// pitch reported by decoders is not trusted, so sources fill it in with this.
func BytesPerRow(f PixelFormat, paddedWidth int) int {
	return paddedWidth * BitsPerPixel(f) / 8
}

// PadToBlock rounds a content dimension up to the next block boundary.
func PadToBlock(n int) int {
	return (n + BlockSize - 1) / BlockSize * BlockSize
}

// PixelBuffer is a decoder-owned buffer that is lent out for a single upload.
// The borrower must call Unlock after LockForRead succeeded and must call
// Release exactly once when it is done with the frame.
type PixelBuffer interface {
	LockForRead() error
	Bytes() []byte
	Unlock()
	Release()
}

type CompressedFrame struct {
	Width        int
	Height       int
	PaddedWidth  int
	PaddedHeight int
	Format       PixelFormat
	BytesPerRow  int
	Buffer       PixelBuffer
	Arrival      time.Time
}

// ExpectedBytes is the number of bytes an upload of this frame reads.
func (f *CompressedFrame) ExpectedBytes() int {
	return f.BytesPerRow * f.PaddedHeight
}

// Validate checks the frame against the decoder contract. It only looks at
// geometry and format; the buffer length is checked by ValidateBuffer once
// the buffer is locked.
func (f *CompressedFrame) Validate() error {
	if f.PaddedWidth <= 0 || f.PaddedHeight <= 0 ||
		f.PaddedWidth%BlockSize != 0 || f.PaddedHeight%BlockSize != 0 {
		return fmt.Errorf("%w: padded size %dx%d is not a multiple of %d",
			ErrInvalidFrameGeometry, f.PaddedWidth, f.PaddedHeight, BlockSize)
	}
	if f.Width <= 0 || f.Height <= 0 || f.Width > f.PaddedWidth || f.Height > f.PaddedHeight {
		return fmt.Errorf("%w: content size %dx%d does not fit padded size %dx%d",
			ErrInvalidFrameGeometry, f.Width, f.Height, f.PaddedWidth, f.PaddedHeight)
	}
	if BitsPerPixel(f.Format) == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
	return nil
}

// ValidateBuffer checks that data holds at least ExpectedBytes.
func (f *CompressedFrame) ValidateBuffer(data []byte) error {
	return CheckBufferLen(data, f.BytesPerRow, f.PaddedHeight)
}

// UploadPitch is the row pitch an upload of f reads, derived from its padded
// width and format rather than the decoder's BytesPerRow.
func (f *CompressedFrame) UploadPitch() int {
	return BytesPerRow(f.Format, f.PaddedWidth)
}

func CheckBufferLen(data []byte, bytesPerRow, rows int) error {
	if need := bytesPerRow * rows; len(data) < need {
		return fmt.Errorf("%w: have %d bytes, need %d (%d bytes per row * %d rows)",
			ErrBufferTooSmall, len(data), need, bytesPerRow, rows)
	}
	return nil
}

// Release hands the buffer back to its owner. It is safe to call on frames
// without a buffer.
func (f *CompressedFrame) Release() {
	if f.Buffer != nil {
		f.Buffer.Release()
		f.Buffer = nil
	}
}
