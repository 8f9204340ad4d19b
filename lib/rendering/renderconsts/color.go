package renderconsts

import (
	"github.com/fosdem/happlay/lib/encdec"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// InternalFormat is a GL sized internal format.
type InternalFormat uint32

// The S3TC formats come from EXT_texture_compression_s3tc and are not part
// of the core profile headers.
const (
	CompressedRGBDXT1  InternalFormat = 0x83F0
	CompressedRGBADXT5 InternalFormat = 0x83F3
	None               InternalFormat = 0
)

// Filtering and wrapping used for movie textures.
const (
	Filter int32 = gl.LINEAR
	Wrap   int32 = gl.CLAMP_TO_EDGE
)

// ForPixelFormat maps a frame format to the storage format of its texture.
// The YCoCg variant is stored as plain DXT5 and only decoded at draw time.
func ForPixelFormat(f encdec.PixelFormat) InternalFormat {
	switch f {
	case encdec.DXT1RGB:
		return CompressedRGBDXT1
	case encdec.DXT5RGBA, encdec.DXT5YCoCg:
		return CompressedRGBADXT5
	default:
		return None
	}
}

func (f InternalFormat) String() string {
	switch f {
	case CompressedRGBDXT1:
		return "COMPRESSED_RGB_S3TC_DXT1"
	case CompressedRGBADXT5:
		return "COMPRESSED_RGBA_S3TC_DXT5"
	default:
		return "NONE"
	}
}

// StorageSize is the number of bytes a width x height image takes in format f.
func StorageSize(f InternalFormat, width, height int) int {
	blockBytes := 0
	switch f {
	case CompressedRGBDXT1:
		blockBytes = 8
	case CompressedRGBADXT5:
		blockBytes = 16
	}
	return ((width + 3) / 4) * ((height + 3) / 4) * blockBytes
}
