// Package present draws movie textures with the program matching their
// pixel format.
package present

import (
	"fmt"
	"log/slog"

	"github.com/fosdem/happlay/lib/encdec"
	"github.com/fosdem/happlay/lib/rendering"
	"github.com/fosdem/happlay/lib/rendering/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// ProgramFor maps a texture format to the program that samples it. It
// reports false for formats that are never drawn.
func ProgramFor(f encdec.PixelFormat) (shaders.ProgramKind, bool) {
	switch f {
	case encdec.DXT1RGB, encdec.DXT5RGBA:
		return shaders.Passthrough, true
	case encdec.DXT5YCoCg:
		return shaders.YCoCgDecode, true
	default:
		return 0, false
	}
}

// Viewport is the area a movie is drawn into. Width and Height are the
// framebuffer size in pixels; Region is the part of it to fit the movie in,
// in normalised device coordinates (x0, y0, x1, y1). A zero Region means the
// whole framebuffer.
type Viewport struct {
	Width  int
	Height int
	Region mgl32.Vec4
}

var fullRegion = mgl32.Vec4{-1, -1, 1, 1}

// FitRect scales a contentW x contentH image to the largest size that fits
// the viewport region without changing its aspect ratio, and centres it.
func FitRect(contentW, contentH int, vp Viewport) mgl32.Vec4 {
	region := vp.Region
	if region == (mgl32.Vec4{}) {
		region = fullRegion
	}
	if contentW <= 0 || contentH <= 0 || vp.Width <= 0 || vp.Height <= 0 {
		return region
	}

	// region size in pixels
	rw := (region[2] - region[0]) / 2 * float32(vp.Width)
	rh := (region[3] - region[1]) / 2 * float32(vp.Height)

	scale := min(rw/float32(contentW), rh/float32(contentH))
	w := float32(contentW) * scale / float32(vp.Width) * 2
	h := float32(contentH) * scale / float32(vp.Height) * 2

	cx := (region[0] + region[2]) / 2
	cy := (region[1] + region[3]) / 2
	return mgl32.Vec4{cx - w/2, cy - h/2, cx + w/2, cy + h/2}
}

type Presenter struct {
	dev     rendering.Device
	library *shaders.Library
	log     *slog.Logger
}

func NewPresenter(dev rendering.Device, library *shaders.Library, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{dev: dev, library: library, log: logger}
}

// Draw issues one quad for tex. A nil texture or one in a format without a
// program draws nothing.
func (p *Presenter) Draw(tex *rendering.Texture, vp Viewport) error {
	if !tex.Valid() {
		return nil
	}
	kind, ok := ProgramFor(tex.Format)
	if !ok {
		return nil
	}
	program, err := p.library.Program(kind)
	if err != nil {
		return fmt.Errorf("could not get %s program: %w", kind, err)
	}

	q := rendering.Quad{
		Rect:    FitRect(tex.CleanWidth, tex.CleanHeight, vp),
		UVScale: tex.UVScale(),
	}
	return p.dev.DrawQuad(program, tex.ID, q)
}
