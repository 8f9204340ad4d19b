package movie

import (
	"github.com/fosdem/happlay/lib/codec"
	"github.com/fosdem/happlay/lib/encdec"
)

// FrameSource is the decoder side of a movie. It delivers frames to the
// registered callback on a thread of its choosing.
type FrameSource interface {
	// CodecIdentifier returns the fourCC of the video track.
	CodecIdentifier() (codec.FourCC, error)
	// SetFrameCallback replaces the callback. nil unregisters it.
	SetFrameCallback(fn func(*encdec.CompressedFrame))
	Start() error
	// Stop returns only after an in-flight callback has returned. It is safe
	// to call on a source that was never started.
	Stop()
}

// FrameReceiver is what a source delivers frames to.
type FrameReceiver interface {
	// OnNewFrame takes ownership of frame and releases its buffer.
	OnNewFrame(frame *encdec.CompressedFrame)
	// ReleaseFrame drops the current texture.
	ReleaseFrame()
}

// Opener builds a source for a movie file.
type Opener func(path string) (FrameSource, error)

// BytesOpener builds a source for an in-memory movie. hint is a file name
// or extension that helps picking a demuxer and may be empty.
type BytesOpener func(data []byte, hint string) (FrameSource, error)
