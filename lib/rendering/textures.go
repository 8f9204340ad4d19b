package rendering

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fosdem/happlay/lib/encdec"
	"github.com/fosdem/happlay/lib/rendering/renderconsts"
	"github.com/go-gl/mathgl/mgl32"
)

// Texture describes the current backing storage of a movie. Values are never
// modified after they are published; a new frame with a different content
// size produces a new Texture that may share the storage of the old one.
type Texture struct {
	ID             uint32
	BackingWidth   int
	BackingHeight  int
	CleanWidth     int
	CleanHeight    int
	InternalFormat renderconsts.InternalFormat
	Format         encdec.PixelFormat

	// Generation is bumped every time new storage is allocated.
	Generation uint64
}

// Valid reports whether t refers to usable storage.
func (t *Texture) Valid() bool {
	return t != nil && t.ID != 0 && t.BackingWidth > 0 && t.BackingHeight > 0
}

// UVScale is the texture coordinate of the bottom right content pixel, so
// the padding and the power of two slack are never sampled.
func (t *Texture) UVScale() mgl32.Vec2 {
	if !t.Valid() {
		return mgl32.Vec2{}
	}
	return mgl32.Vec2{
		float32(t.CleanWidth) / float32(t.BackingWidth),
		float32(t.CleanHeight) / float32(t.BackingHeight),
	}
}

func (t *Texture) String() string {
	if t == nil {
		return "<no texture>"
	}
	return fmt.Sprintf("texture %d %dx%d (content %dx%d, %s)",
		t.ID, t.BackingWidth, t.BackingHeight, t.CleanWidth, t.CleanHeight, t.InternalFormat)
}

// NextPowerOfTwo returns the smallest power of two >= n. Values below 1
// return 1.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// TextureCache owns the backing storage of one movie. Storage is only
// reallocated when the padded size or the pixel format of the incoming
// frames changes.
type TextureCache struct {
	dev Device
	log *slog.Logger

	mu          sync.Mutex
	cur         *Texture
	paddedW     int
	paddedH     int
	allocations uint64
}

func NewTextureCache(dev Device, logger *slog.Logger) *TextureCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextureCache{dev: dev, log: logger}
}

// Ensure returns a texture that can hold a paddedW x paddedH frame in format
// f. The returned value carries cleanW x cleanH as its content size.
func (c *TextureCache) Ensure(paddedW, paddedH int, f encdec.PixelFormat, cleanW, cleanH int) (*Texture, error) {
	internal := renderconsts.ForPixelFormat(f)
	if internal == renderconsts.None {
		return nil, fmt.Errorf("%w: %s", encdec.ErrUnsupportedFormat, f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur != nil && c.paddedW == paddedW && c.paddedH == paddedH && c.cur.Format == f {
		if c.cur.CleanWidth != cleanW || c.cur.CleanHeight != cleanH {
			next := *c.cur
			next.CleanWidth = cleanW
			next.CleanHeight = cleanH
			c.cur = &next
		}
		return c.cur, nil
	}

	backingW := NextPowerOfTwo(paddedW)
	backingH := NextPowerOfTwo(paddedH)
	id, err := c.dev.AllocateCompressed(backingW, backingH, internal)
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d %s: %w", ErrTextureAllocation, backingW, backingH, internal, err)
	}

	if c.cur != nil {
		c.log.Info("reallocating texture",
			"old", c.cur.String(), "padded_width", paddedW, "padded_height", paddedH, "format", f)
		c.dev.DeleteTexture(c.cur.ID)
	}

	c.allocations++
	c.paddedW = paddedW
	c.paddedH = paddedH
	c.cur = &Texture{
		ID:             id,
		BackingWidth:   backingW,
		BackingHeight:  backingH,
		CleanWidth:     cleanW,
		CleanHeight:    cleanH,
		InternalFormat: internal,
		Format:         f,
		Generation:     c.allocations,
	}
	c.log.Debug("allocated texture", "texture", c.cur.String())
	return c.cur, nil
}

// Current returns the last texture handed out by Ensure, or nil.
func (c *TextureCache) Current() *Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Allocations is the number of times storage was allocated.
func (c *TextureCache) Allocations() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocations
}

// Release deletes the storage. The cache can be used again afterwards.
func (c *TextureCache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur != nil {
		c.dev.DeleteTexture(c.cur.ID)
		c.cur = nil
		c.paddedW, c.paddedH = 0, 0
	}
}
