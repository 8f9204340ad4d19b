package rendering

import (
	"errors"
	"sync/atomic"

	"github.com/fosdem/happlay/lib/rendering/renderconsts"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrTextureAllocation = errors.New("texture allocation failed")
	ErrDeviceClosed      = errors.New("device closed")
)

// Quad is one textured rectangle. Rect holds the corners (x0, y0, x1, y1) in
// normalised device coordinates, UVScale the texture coordinate of the
// far corner.
type Quad struct {
	Rect    mgl32.Vec4
	UVScale mgl32.Vec2
}

// Device is the part of the GPU the movie pipeline talks to. Texture
// allocation, upload and deletion may be called from the decode callback;
// DrawQuad is only called from the render thread.
type Device interface {
	AllocateCompressed(width, height int, format renderconsts.InternalFormat) (uint32, error)
	UploadCompressed(id uint32, width, height int, format renderconsts.InternalFormat, data []byte) error
	DeleteTexture(id uint32)
	DrawQuad(program uint32, texture uint32, q Quad) error
}

var textureUploadCounter atomic.Uint64

// TextureUploadBytes is the number of compressed bytes uploaded so far by
// all movies.
func TextureUploadBytes() uint64 {
	return textureUploadCounter.Load()
}
