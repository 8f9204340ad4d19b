package kbdctl

import (
	"github.com/fosdem/happlay/lib/log"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Controls are the player actions reachable from the keyboard.
type Controls interface {
	RequestShutdown()
	ReopenAll()
	ToggleFullscreen()
	// ToggleMovie shows or hides the movie at a position in layer order.
	ToggleMovie(index int) error
}

func SetupShortcutKeys(window *glfw.Window, ctl Controls) {
	window.SetKeyCallback(keyCallback(ctl))
}

func Poll() {
	glfw.PollEvents()
}

func keyCallback(ctl Controls) glfw.KeyCallback {
	return func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		HandleKey(ctl, key, action, mods)
	}
}

// HandleKey applies one key event. Quitting reacts to the release so the
// key up does not end up in another window.
func HandleKey(ctl Controls, key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	logger := log.Module("kbdctl")
	if action == glfw.Release {
		if key == glfw.KeyQ &&
			mods&glfw.ModControl != 0 &&
			mods&glfw.ModShift != 0 {
			logger.Info("told to quit, exiting")
			ctl.RequestShutdown()
		}
		return
	}
	if action != glfw.Press {
		return
	}

	switch {
	case key == glfw.KeyF && mods == 0:
		ctl.ToggleFullscreen()
	case key == glfw.KeyR && mods == 0:
		logger.Info("reopening all movies")
		ctl.ReopenAll()
	case key >= glfw.Key1 && key <= glfw.Key9:
		selected := int(key - glfw.Key1)
		if err := ctl.ToggleMovie(selected); err != nil {
			logger.Warn("could not toggle movie", "index", selected, "err", err)
		}
	}
}
