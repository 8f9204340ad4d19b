package player

import (
	"context"
	"fmt"
	"time"

	"github.com/fosdem/happlay/lib/api"
	"github.com/fosdem/happlay/lib/config"
	"github.com/fosdem/happlay/lib/kbdctl"
	"github.com/fosdem/happlay/lib/log"
	"github.com/fosdem/happlay/lib/rendering"
	"github.com/fosdem/happlay/lib/rendering/shaders"
	"github.com/fosdem/happlay/lib/sink/windowsink"
	"github.com/fosdem/happlay/lib/stats"
	"github.com/fosdem/happlay/lib/utils"
)

const slowFrame = 100 * time.Millisecond

// MakeWindowAndPlay opens the window, plays every movie until asked to stop
// and tears everything down again. It must run on the main thread.
func MakeWindowAndPlay(cfg *config.Config) error {
	logger := log.Module("player")

	ws := windowsink.New(cfg.Window)
	if err := ws.Start(); err != nil {
		return err
	}
	defer ws.Close()

	if err := rendering.Init(); err != nil {
		return fmt.Errorf("could not initialise renderer: %w", err)
	}

	glvars := rendering.NewGLVars(utils.ColourParse(cfg.Window.BackgroundColour))
	glvars.Start()
	defer glvars.Delete()

	device := rendering.NewGLDevice(glvars, ws.Upload, log.Module("gldevice"))
	defer device.Close()

	lib := shaders.NewLibrary(shaders.GLCompiler{}, cfg.Playback.GLSLVersion, log.Module("shaders"))

	p := New(cfg, device, lib)
	p.fullscreen = ws.ToggleFullscreen
	defer p.CloseAll()

	if err := p.OpenAll(); err != nil {
		logger.Warn("not every movie could be opened", "err", err)
	}
	if err := p.Watch(); err != nil {
		logger.Warn("movie files are not watched", "err", err)
	}

	st := stats.New()
	theApi := api.ServeInBackground(cfg.Api, p, st)
	if theApi != nil {
		defer func() {
			// release api handlers waiting in Do before draining them
			p.Stop()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = theApi.Shutdown(ctx)
		}()
	}

	kbdctl.SetupShortcutKeys(ws.Window, p)

	var deltaTimer utils.DeltaTimer
	for !p.ShutdownRequested() {
		width, height := ws.Size()
		glvars.StartFrame(width, height)
		if dt := deltaTimer.Next(); dt > slowFrame {
			logger.Debug("slow frame", "dt", dt, "average", deltaTimer.Average())
		}

		p.RunTasks()
		p.DrawAll(width, height)

		ws.SwapBuffers()
		if ws.ShouldClose() {
			p.RequestShutdown()
		}

		// Maintenance
		st.Update()
		kbdctl.Poll()
	}
	logger.Info("shutting down")
	return nil
}
