package rendering

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

func Init() error {
	err := gl.Init()
	if err != nil {
		return fmt.Errorf("could not initialise OpenGL context: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	renderer := gl.GoStr(gl.GetString(gl.RENDERER))
	slog.Info("OpenGL initialised", "version", version, "renderer", renderer)

	if !HasS3TC() {
		slog.Warn("GL_EXT_texture_compression_s3tc not advertised, uploads may fail")
	}
	return nil
}

// HasS3TC reports whether the current context advertises DXT support.
func HasS3TC() bool {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := range uint32(n) {
		ext := gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i))
		if strings.Contains(ext, "texture_compression_s3tc") {
			return true
		}
	}
	return false
}
