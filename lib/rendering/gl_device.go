package rendering

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/fosdem/happlay/lib/rendering/renderconsts"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// UploadContext is a GL context that shares objects with the render
// context. *glfw.Window satisfies it.
type UploadContext interface {
	MakeContextCurrent()
}

// GLDevice implements Device on top of OpenGL. Draws run on the calling
// (render) thread. Texture allocation, upload and deletion run on a
// dedicated OS thread that owns the upload context, so decode callbacks
// never have to wait for the render loop.
type GLDevice struct {
	vars *GLVars
	log  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	uploads chan func()
	done    chan struct{}
}

// NewGLDevice starts the upload thread on uploadCtx. With a nil uploadCtx
// all calls run inline and must come from the thread owning the context.
func NewGLDevice(vars *GLVars, uploadCtx UploadContext, logger *slog.Logger) *GLDevice {
	if logger == nil {
		logger = slog.Default()
	}
	d := &GLDevice{vars: vars, log: logger}
	if uploadCtx != nil {
		d.uploads = make(chan func())
		d.done = make(chan struct{})
		go d.uploadLoop(uploadCtx)
	}
	return d
}

func (d *GLDevice) uploadLoop(ctx UploadContext) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(d.done)

	ctx.MakeContextCurrent()
	d.log.Info("upload thread started")
	for fn := range d.uploads {
		fn()
	}
	glfw.DetachCurrentContext()
	d.log.Info("upload thread stopped")
}

func (d *GLDevice) onUploadThread(fn func()) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDeviceClosed
	}
	if d.uploads == nil {
		fn()
		return nil
	}
	finished := make(chan struct{})
	d.uploads <- func() {
		defer close(finished)
		fn()
	}
	<-finished
	return nil
}

func (d *GLDevice) AllocateCompressed(width, height int, format renderconsts.InternalFormat) (uint32, error) {
	var id uint32
	var glErr uint32
	err := d.onUploadThread(func() {
		gl.GenTextures(1, &id)
		gl.BindTexture(gl.TEXTURE_2D, id)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, renderconsts.Filter)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, renderconsts.Filter)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, renderconsts.Wrap)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, renderconsts.Wrap)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, 0)

		// nil data allocates the storage without filling it
		gl.CompressedTexImage2D(
			gl.TEXTURE_2D,
			0,
			uint32(format),
			int32(width),
			int32(height),
			0,
			int32(renderconsts.StorageSize(format, width, height)),
			nil,
		)
		glErr = gl.GetError()
		if glErr != gl.NO_ERROR {
			gl.DeleteTextures(1, &id)
			id = 0
		}
		gl.BindTexture(gl.TEXTURE_2D, 0)
	})
	if err != nil {
		return 0, err
	}
	if glErr != gl.NO_ERROR {
		return 0, fmt.Errorf("gl error 0x%04x", glErr)
	}
	return id, nil
}

func (d *GLDevice) UploadCompressed(id uint32, width, height int, format renderconsts.InternalFormat, data []byte) error {
	var glErr uint32
	err := d.onUploadThread(func() {
		gl.BindTexture(gl.TEXTURE_2D, id)
		gl.CompressedTexSubImage2D(
			gl.TEXTURE_2D,
			0,
			0, 0,
			int32(width),
			int32(height),
			uint32(format),
			int32(len(data)),
			gl.Ptr(data),
		)
		glErr = gl.GetError()
		gl.BindTexture(gl.TEXTURE_2D, 0)

		// make the upload visible to the render context
		gl.Flush()
	})
	if err != nil {
		return err
	}
	if glErr != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%04x", glErr)
	}
	return nil
}

func (d *GLDevice) DeleteTexture(id uint32) {
	err := d.onUploadThread(func() {
		gl.DeleteTextures(1, &id)
		gl.Flush()
	})
	if err != nil {
		d.log.Warn("could not delete texture", "id", id, "err", err)
	}
}

func (d *GLDevice) DrawQuad(program uint32, texture uint32, q Quad) error {
	d.vars.drawQuad(program, texture, q)
	if glErr := gl.GetError(); glErr != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%04x while drawing texture %d", glErr, texture)
	}
	return nil
}

// Close stops the upload thread. Outstanding calls finish first.
func (d *GLDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.uploads != nil {
		close(d.uploads)
		<-d.done
	}
}
