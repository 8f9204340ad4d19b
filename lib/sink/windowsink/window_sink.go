// Package windowsink opens the output window and a hidden second context
// that shares textures with it.
package windowsink

import (
	"fmt"
	"log/slog"

	"github.com/fosdem/happlay/lib/config"
	"github.com/fosdem/happlay/lib/log"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type WindowSink struct {
	cfg *config.WindowCfg
	log *slog.Logger

	Window *glfw.Window
	// Upload is never shown. Texture uploads run on its context.
	Upload *glfw.Window

	fullscreen bool
	savedX     int
	savedY     int
}

func New(cfg *config.WindowCfg) *WindowSink {
	return &WindowSink{
		cfg:        cfg,
		log:        log.Module("windowsink"),
		fullscreen: cfg.Fullscreen,
	}
}

// Start creates both windows and makes the main one current on the calling
// thread. It must run on the main thread.
func (w *WindowSink) Start() error {
	if w.Window != nil {
		return nil
	}
	w.log.Debug("Initializing window")
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}

	setContextHints()
	glfw.WindowHint(glfw.Resizable, glfw.True)

	var monitor *glfw.Monitor
	width, height := w.cfg.Width, w.cfg.Height
	if w.fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		width, height = mode.Width, mode.Height
	}
	window, err := glfw.CreateWindow(width, height, w.cfg.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("could not create window: %w", err)
	}

	setContextHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	upload, err := glfw.CreateWindow(1, 1, w.cfg.Title+" upload", nil, window)
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return fmt.Errorf("could not create upload context: %w", err)
	}
	glfw.DefaultWindowHints()

	window.MakeContextCurrent()
	if *w.cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w.Window = window
	w.Upload = upload
	w.log.Info("window opened", "width", width, "height", height, "fullscreen", w.fullscreen)
	return nil
}

func setContextHints() {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
}

// Size is the framebuffer size in pixels.
func (w *WindowSink) Size() (int, int) {
	return w.Window.GetFramebufferSize()
}

func (w *WindowSink) ToggleFullscreen() {
	if w.fullscreen {
		w.Window.SetMonitor(nil, w.savedX, w.savedY, w.cfg.Width, w.cfg.Height, glfw.DontCare)
	} else {
		w.savedX, w.savedY = w.Window.GetPos()
		monitor := glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		w.Window.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	}
	w.fullscreen = !w.fullscreen
	w.log.Info("fullscreen toggled", "fullscreen", w.fullscreen)
}

func (w *WindowSink) SwapBuffers() {
	w.Window.SwapBuffers()
}

func (w *WindowSink) ShouldClose() bool {
	return w.Window.ShouldClose()
}

// Close destroys both windows and terminates glfw. The upload context must
// no longer be current on any thread.
func (w *WindowSink) Close() {
	if w.Window == nil {
		return
	}
	w.Upload.Destroy()
	w.Window.Destroy()
	w.Upload = nil
	w.Window = nil
	glfw.Terminate()
}
