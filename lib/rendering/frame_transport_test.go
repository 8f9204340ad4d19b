package rendering_test

import (
	"image/color"
	"testing"

	"github.com/fosdem/happlay/lib/encdec"
	"github.com/fosdem/happlay/lib/rendering"
	"github.com/fosdem/happlay/lib/rendering/renderingtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(t *testing.T, w, h int, f encdec.PixelFormat, c color.NRGBA, short int) (*encdec.CompressedFrame, *encdec.BorrowedBytes) {
	t.Helper()
	pw, ph := encdec.PadToBlock(w), encdec.PadToBlock(h)
	data := make([]byte, encdec.BytesPerRow(f, pw)*ph)
	require.NoError(t, encdec.FillBlocks(data, f, pw, ph, func(int, int) color.NRGBA { return c }))
	buf := encdec.NewBorrowedBytes(data[:len(data)-short], nil)
	return &encdec.CompressedFrame{
		Width:        w,
		Height:       h,
		PaddedWidth:  pw,
		PaddedHeight: ph,
		Format:       f,
		BytesPerRow:  1, // decoders get this wrong, the uploader recomputes it
		Buffer:       buf,
	}, buf
}

func TestDeliverWritesFrame(t *testing.T) {
	dev := renderingtest.NewDevice()
	cache := rendering.NewTextureCache(dev, nil)
	up := rendering.NewFrameUploader(dev)

	before := rendering.TextureUploadBytes()
	frame, buf := solidFrame(t, 16, 16, encdec.DXT1RGB, color.NRGBA{R: 255, A: 255}, 0)
	tex, err := up.Deliver(cache, frame)
	require.NoError(t, err)

	assert.Equal(t, 16, tex.BackingWidth)
	assert.True(t, buf.Released())
	assert.False(t, buf.Locked())
	assert.Nil(t, frame.Buffer)
	assert.Equal(t, 1, frame.BytesPerRow, "the decoder's pitch is left as reported")
	assert.Equal(t, before+128, rendering.TextureUploadBytes())

	s, ok := dev.Texture(tex.ID)
	require.True(t, ok)
	assert.Equal(t, 1, s.Uploads)
	assert.Equal(t, []byte{0x00, 0xf8}, s.Data[:2])
}

func TestDeliverShortBufferLeavesCacheAlone(t *testing.T) {
	dev := renderingtest.NewDevice()
	cache := rendering.NewTextureCache(dev, nil)
	up := rendering.NewFrameUploader(dev)

	frame, buf := solidFrame(t, 16, 16, encdec.DXT5RGBA, color.NRGBA{A: 255}, 10)
	_, err := up.Deliver(cache, frame)
	assert.ErrorIs(t, err, encdec.ErrBufferTooSmall)
	assert.True(t, buf.Released())
	assert.False(t, buf.Locked())
	assert.Nil(t, cache.Current())
	assert.Equal(t, 0, dev.Allocations())
}

func TestDeliverRejectsBadGeometry(t *testing.T) {
	dev := renderingtest.NewDevice()
	cache := rendering.NewTextureCache(dev, nil)
	up := rendering.NewFrameUploader(dev)

	frame, buf := solidFrame(t, 16, 16, encdec.DXT1RGB, color.NRGBA{}, 0)
	frame.PaddedWidth = 18
	_, err := up.Deliver(cache, frame)
	assert.ErrorIs(t, err, encdec.ErrInvalidFrameGeometry)
	assert.True(t, buf.Released())
	assert.Equal(t, 0, dev.Allocations())
}

func TestDeliverRejectsUnsupportedFormat(t *testing.T) {
	dev := renderingtest.NewDevice()
	cache := rendering.NewTextureCache(dev, nil)
	up := rendering.NewFrameUploader(dev)

	frame, buf := solidFrame(t, 16, 16, encdec.DXT1RGB, color.NRGBA{}, 0)
	frame.Format = encdec.Unsupported
	_, err := up.Deliver(cache, frame)
	assert.ErrorIs(t, err, encdec.ErrUnsupportedFormat)
	assert.True(t, buf.Released())
}

func TestDeliverWithoutBuffer(t *testing.T) {
	dev := renderingtest.NewDevice()
	up := rendering.NewFrameUploader(dev)
	frame := &encdec.CompressedFrame{Width: 4, Height: 4, PaddedWidth: 4, PaddedHeight: 4, Format: encdec.DXT1RGB}
	_, err := up.Deliver(rendering.NewTextureCache(dev, nil), frame)
	assert.ErrorIs(t, err, encdec.ErrBufferTooSmall)
}

func TestDeliverDeviceFailure(t *testing.T) {
	dev := renderingtest.NewDevice()
	cache := rendering.NewTextureCache(dev, nil)
	up := rendering.NewFrameUploader(dev)

	dev.FailUpload = true
	frame, buf := solidFrame(t, 8, 8, encdec.DXT1RGB, color.NRGBA{}, 0)
	_, err := up.Deliver(cache, frame)
	assert.ErrorIs(t, err, renderingtest.ErrInjected)
	assert.True(t, buf.Released())
}

func TestUploadIntoExistingTexture(t *testing.T) {
	dev := renderingtest.NewDevice()
	cache := rendering.NewTextureCache(dev, nil)
	up := rendering.NewFrameUploader(dev)

	tex, err := cache.Ensure(20, 20, encdec.DXT5RGBA, 18, 18)
	require.NoError(t, err)

	frame, buf := solidFrame(t, 18, 18, encdec.DXT5RGBA, color.NRGBA{G: 255, A: 128}, 0)
	require.NoError(t, up.Upload(tex, frame))
	assert.True(t, buf.Released())

	frame, _ = solidFrame(t, 18, 18, encdec.DXT1RGB, color.NRGBA{}, 0)
	assert.ErrorIs(t, up.Upload(tex, frame), encdec.ErrUnsupportedFormat)

	frame, _ = solidFrame(t, 40, 40, encdec.DXT5RGBA, color.NRGBA{}, 0)
	assert.ErrorIs(t, up.Upload(tex, frame), encdec.ErrInvalidFrameGeometry)

	frame, _ = solidFrame(t, 16, 16, encdec.DXT5RGBA, color.NRGBA{}, 0)
	assert.ErrorIs(t, up.Upload(nil, frame), rendering.ErrTextureAllocation)
}
