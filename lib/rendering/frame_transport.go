package rendering

import (
	"fmt"

	"github.com/fosdem/happlay/lib/encdec"
)

// FrameUploader copies compressed frames into texture storage. Every path
// through Upload and Deliver releases the frame's buffer.
type FrameUploader struct {
	dev Device
}

func NewFrameUploader(dev Device) *FrameUploader {
	return &FrameUploader{dev: dev}
}

// Upload writes frame into tex. tex must have been sized for the frame by a
// TextureCache.
func (u *FrameUploader) Upload(tex *Texture, frame *encdec.CompressedFrame) error {
	defer frame.Release()

	data, unlock, err := u.borrow(frame)
	if err != nil {
		return err
	}
	defer unlock()

	return u.write(tex, frame, data)
}

// Deliver validates frame, makes sure cache has storage for it and writes
// it. The texture is only returned when the upload succeeded; a rejected
// frame never touches the cache.
func (u *FrameUploader) Deliver(cache *TextureCache, frame *encdec.CompressedFrame) (*Texture, error) {
	defer frame.Release()

	data, unlock, err := u.borrow(frame)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tex, err := cache.Ensure(frame.PaddedWidth, frame.PaddedHeight, frame.Format, frame.Width, frame.Height)
	if err != nil {
		return nil, err
	}
	if err := u.write(tex, frame, data); err != nil {
		return nil, err
	}
	return tex, nil
}

// borrow validates the frame and locks its buffer. The returned unlock func
// must be called when err is nil.
func (u *FrameUploader) borrow(frame *encdec.CompressedFrame) ([]byte, func(), error) {
	if err := frame.Validate(); err != nil {
		return nil, nil, err
	}
	// The pitch reported by the decoder is not trusted.
	pitch := frame.UploadPitch()

	if frame.Buffer == nil {
		return nil, nil, encdec.CheckBufferLen(nil, pitch, frame.PaddedHeight)
	}
	if err := frame.Buffer.LockForRead(); err != nil {
		return nil, nil, fmt.Errorf("could not lock frame buffer: %w", err)
	}
	data := frame.Buffer.Bytes()
	if err := encdec.CheckBufferLen(data, pitch, frame.PaddedHeight); err != nil {
		frame.Buffer.Unlock()
		return nil, nil, err
	}
	return data[:pitch*frame.PaddedHeight], frame.Buffer.Unlock, nil
}

func (u *FrameUploader) write(tex *Texture, frame *encdec.CompressedFrame, data []byte) error {
	if !tex.Valid() {
		return fmt.Errorf("%w: no texture to upload into", ErrTextureAllocation)
	}
	if frame.PaddedWidth > tex.BackingWidth || frame.PaddedHeight > tex.BackingHeight {
		return fmt.Errorf("%w: frame %dx%d does not fit %s",
			encdec.ErrInvalidFrameGeometry, frame.PaddedWidth, frame.PaddedHeight, tex)
	}
	if frame.Format != tex.Format {
		return fmt.Errorf("%w: frame is %s, texture is %s",
			encdec.ErrUnsupportedFormat, frame.Format, tex.Format)
	}

	err := u.dev.UploadCompressed(tex.ID, frame.PaddedWidth, frame.PaddedHeight, tex.InternalFormat, data)
	if err != nil {
		return fmt.Errorf("could not upload frame to %s: %w", tex, err)
	}
	textureUploadCounter.Add(uint64(len(data)))
	return nil
}
