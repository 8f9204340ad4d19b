package encdec

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFrame(w, h, pw, ph int, f PixelFormat) *CompressedFrame {
	bpr := BytesPerRow(f, pw)
	return &CompressedFrame{
		Width:        w,
		Height:       h,
		PaddedWidth:  pw,
		PaddedHeight: ph,
		Format:       f,
		BytesPerRow:  bpr,
		Buffer:       NewBorrowedBytes(make([]byte, bpr*ph), nil),
	}
}

func TestBytesPerRow(t *testing.T) {
	assert.Equal(t, 8, BytesPerRow(DXT1RGB, 16))
	assert.Equal(t, 16, BytesPerRow(DXT5RGBA, 16))
	assert.Equal(t, 16, BytesPerRow(DXT5YCoCg, 16))
	assert.Equal(t, 0, BytesPerRow(Unsupported, 16))
}

func TestPadToBlock(t *testing.T) {
	assert.Equal(t, 16, PadToBlock(16))
	assert.Equal(t, 20, PadToBlock(18))
	assert.Equal(t, 4, PadToBlock(1))
}

func TestValidateGeometry(t *testing.T) {
	f := validFrame(18, 18, 20, 20, DXT1RGB)
	require.NoError(t, f.Validate())

	f.PaddedWidth = 18
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrameGeometry)

	f = validFrame(18, 18, 20, 22, DXT1RGB)
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrameGeometry)

	f = validFrame(24, 18, 20, 20, DXT1RGB)
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrameGeometry)
}

func TestValidateChecksGeometryBeforeFormat(t *testing.T) {
	f := validFrame(18, 18, 18, 20, Unsupported)
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrameGeometry)

	f = validFrame(16, 16, 16, 16, Unsupported)
	assert.ErrorIs(t, f.Validate(), ErrUnsupportedFormat)
}

func TestValidateBuffer(t *testing.T) {
	f := validFrame(16, 16, 16, 16, DXT1RGB)
	assert.NoError(t, f.ValidateBuffer(make([]byte, f.ExpectedBytes())))
	assert.ErrorIs(t, f.ValidateBuffer(make([]byte, f.ExpectedBytes()-10)), ErrBufferTooSmall)
}

func TestUploadPitchIgnoresReportedPitch(t *testing.T) {
	f := validFrame(20, 20, 20, 20, DXT5RGBA)
	f.BytesPerRow = 80
	assert.Equal(t, 20, f.UploadPitch())
	assert.NoError(t, CheckBufferLen(make([]byte, 400), f.UploadPitch(), f.PaddedHeight))
	assert.ErrorIs(t, CheckBufferLen(make([]byte, 399), f.UploadPitch(), f.PaddedHeight), ErrBufferTooSmall)
}

func TestFrameReleaseIsIdempotent(t *testing.T) {
	released := 0
	f := validFrame(16, 16, 16, 16, DXT1RGB)
	f.Buffer = NewBorrowedBytes(make([]byte, 128), func([]byte) { released++ })
	f.Release()
	f.Release()
	assert.Equal(t, 1, released)
	assert.Nil(t, f.Buffer)
}

func TestBorrowedBytesLocking(t *testing.T) {
	b := NewBorrowedBytes([]byte{1, 2, 3}, nil)
	require.NoError(t, b.LockForRead())
	assert.True(t, b.Locked())
	assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
	b.Unlock()
	assert.False(t, b.Locked())

	b.Release()
	assert.True(t, b.Released())
	assert.ErrorIs(t, b.LockForRead(), ErrBufferReleased)
	assert.Nil(t, b.Bytes())
	assert.Panics(t, func() { b.Unlock() })
}

func TestBufferPoolRecycles(t *testing.T) {
	p := NewBufferPool(64, 1)
	assert.Equal(t, 1, p.Available())

	a := p.NewBuffer(32)
	b := p.NewBuffer(64)
	assert.Equal(t, 2, p.Outstanding())
	assert.Equal(t, 0, p.Available())
	require.NoError(t, a.LockForRead())
	assert.Len(t, a.Bytes(), 32)
	a.Unlock()

	a.Release()
	a.Release()
	b.Release()
	assert.Equal(t, 0, p.Outstanding())
	assert.Equal(t, 2, p.Available())

	big := p.NewBuffer(128)
	assert.Equal(t, 0, p.Outstanding())
	big.Release()
	assert.Equal(t, 2, p.Available())
}

func TestFillBlocksDXT1(t *testing.T) {
	buf := make([]byte, BytesPerRow(DXT1RGB, 8)*4)
	err := FillBlocks(buf, DXT1RGB, 8, 4, func(bx, by int) color.NRGBA {
		if bx == 0 {
			return color.NRGBA{R: 255, A: 255}
		}
		return color.NRGBA{B: 255, A: 255}
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xf8, 0x00, 0xf8, 0, 0, 0, 0}, buf[0:8])
	assert.Equal(t, []byte{0x1f, 0x00, 0x1f, 0x00, 0, 0, 0, 0}, buf[8:16])
}

func TestFillBlocksDXT5CarriesAlpha(t *testing.T) {
	buf := make([]byte, BlockBytes(DXT5RGBA))
	require.NoError(t, FillBlocks(buf, DXT5RGBA, 4, 4, func(int, int) color.NRGBA {
		return color.NRGBA{R: 255, G: 255, B: 255, A: 128}
	}))
	assert.Equal(t, byte(128), buf[0])
	assert.Equal(t, byte(128), buf[1])
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, buf[8:12])
}

func TestFillBlocksYCoCgStoresLumaInAlpha(t *testing.T) {
	buf := make([]byte, BlockBytes(DXT5YCoCg))
	require.NoError(t, FillBlocks(buf, DXT5YCoCg, 4, 4, func(int, int) color.NRGBA {
		return color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	}))
	assert.Equal(t, byte(100), buf[0])
	assert.Equal(t, rgb565(128, 128, 0), uint16(buf[8])|uint16(buf[9])<<8)
}

func TestFillBlocksRejectsBadInput(t *testing.T) {
	colour := func(int, int) color.NRGBA { return color.NRGBA{} }
	assert.ErrorIs(t, FillBlocks(make([]byte, 64), Unsupported, 4, 4, colour), ErrUnsupportedFormat)
	assert.ErrorIs(t, FillBlocks(make([]byte, 64), DXT1RGB, 6, 4, colour), ErrInvalidFrameGeometry)
	assert.ErrorIs(t, FillBlocks(make([]byte, 4), DXT1RGB, 4, 4, colour), ErrBufferTooSmall)
}
