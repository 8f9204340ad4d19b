// Package renderingtest provides an in-memory rendering.Device for tests.
package renderingtest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fosdem/happlay/lib/rendering"
	"github.com/fosdem/happlay/lib/rendering/renderconsts"
)

var ErrInjected = errors.New("injected device failure")

type Storage struct {
	Width  int
	Height int
	Format renderconsts.InternalFormat
	Data   []byte
	// Uploads counts writes into this storage.
	Uploads int
}

type Draw struct {
	Program uint32
	Texture uint32
	Quad    rendering.Quad
}

// Device records everything the pipeline does to it.
type Device struct {
	mu       sync.Mutex
	nextID   uint32
	textures map[uint32]*Storage
	deleted  []uint32
	draws    []Draw
	allocs   int

	FailAllocate bool
	FailUpload   bool
}

func NewDevice() *Device {
	return &Device{textures: make(map[uint32]*Storage)}
}

func (d *Device) AllocateCompressed(width, height int, format renderconsts.InternalFormat) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailAllocate {
		return 0, ErrInjected
	}
	d.nextID++
	d.allocs++
	d.textures[d.nextID] = &Storage{
		Width:  width,
		Height: height,
		Format: format,
		Data:   make([]byte, renderconsts.StorageSize(format, width, height)),
	}
	return d.nextID, nil
}

func (d *Device) UploadCompressed(id uint32, width, height int, format renderconsts.InternalFormat, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailUpload {
		return ErrInjected
	}
	s, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("texture %d does not exist", id)
	}
	if format != s.Format {
		return fmt.Errorf("format %s does not match storage %s", format, s.Format)
	}
	if width > s.Width || height > s.Height {
		return fmt.Errorf("%dx%d region does not fit %dx%d storage", width, height, s.Width, s.Height)
	}
	if len(data) != renderconsts.StorageSize(format, width, height) {
		return fmt.Errorf("got %d bytes for a %dx%d region", len(data), width, height)
	}

	// copy block rows into the top left of the storage
	blockBytes := renderconsts.StorageSize(format, 4, 4)
	srcPitch := width / 4 * blockBytes
	dstPitch := (s.Width + 3) / 4 * blockBytes
	for row := 0; row < height/4; row++ {
		copy(s.Data[row*dstPitch:], data[row*srcPitch:(row+1)*srcPitch])
	}
	s.Uploads++
	return nil
}

func (d *Device) DeleteTexture(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, id)
	d.deleted = append(d.deleted, id)
}

func (d *Device) DrawQuad(program uint32, texture uint32, q rendering.Quad) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[texture]; !ok {
		return fmt.Errorf("drawing deleted texture %d", texture)
	}
	d.draws = append(d.draws, Draw{Program: program, Texture: texture, Quad: q})
	return nil
}

// Texture returns a copy of the storage behind id.
func (d *Device) Texture(id uint32) (Storage, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.textures[id]
	if !ok {
		return Storage{}, false
	}
	c := *s
	c.Data = append([]byte(nil), s.Data...)
	return c, true
}

func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

func (d *Device) Allocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocs
}

func (d *Device) Deleted() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint32(nil), d.deleted...)
}

func (d *Device) Draws() []Draw {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Draw(nil), d.draws...)
}
