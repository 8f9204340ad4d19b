package encdec

import (
	"encoding/binary"
	"fmt"
	"image/color"
)

// BlockBytes returns the size of one 4x4 block in the given format.
func BlockBytes(f PixelFormat) int {
	return BlockSize * BlockSize * BitsPerPixel(f) / 8
}

func rgb565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// EncodeDXT1Solid writes a single-colour DXT1 block into dst.
func EncodeDXT1Solid(dst []byte, c color.NRGBA) {
	v := rgb565(c.R, c.G, c.B)
	binary.LittleEndian.PutUint16(dst[0:], v)
	binary.LittleEndian.PutUint16(dst[2:], v)
	clear(dst[4:8])
}

// EncodeDXT5Solid writes a single-colour DXT5 block (explicit alpha
// endpoints, colour endpoints as in DXT1) into dst.
func EncodeDXT5Solid(dst []byte, c color.NRGBA) {
	dst[0] = c.A
	dst[1] = c.A
	clear(dst[2:8])
	EncodeDXT1Solid(dst[8:16], c)
}

// EncodeYCoCgDXT5Solid writes a single-colour block in the scaled YCoCg
// layout: Co, Cg and the scale factor in the colour channels, luma in alpha.
// The scale is always 1, which the decode shader stores as 0.
func EncodeYCoCgDXT5Solid(dst []byte, c color.NRGBA) {
	r, g, b := int(c.R), int(c.G), int(c.B)
	y := (r + 2*g + b + 2) / 4
	co := (r-b+1)/2 + 128
	cg := (-r+2*g-b+2)/4 + 128
	EncodeDXT5Solid(dst, color.NRGBA{
		R: clampByte(co),
		G: clampByte(cg),
		B: 0,
		A: clampByte(y),
	})
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// FillBlocks encodes a paddedWidth x paddedHeight frame into dst, one solid
// block at a time, in row-major block order. colourAt receives block
// coordinates.
func FillBlocks(dst []byte, f PixelFormat, paddedWidth, paddedHeight int, colourAt func(bx, by int) color.NRGBA) error {
	bb := BlockBytes(f)
	if bb == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if paddedWidth%BlockSize != 0 || paddedHeight%BlockSize != 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidFrameGeometry, paddedWidth, paddedHeight)
	}
	bw := paddedWidth / BlockSize
	bh := paddedHeight / BlockSize
	if len(dst) < bw*bh*bb {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrBufferTooSmall, len(dst), bw*bh*bb)
	}

	var encode func([]byte, color.NRGBA)
	switch f {
	case DXT1RGB:
		encode = EncodeDXT1Solid
	case DXT5RGBA:
		encode = EncodeDXT5Solid
	case DXT5YCoCg:
		encode = EncodeYCoCgDXT5Solid
	}

	off := 0
	for by := range bh {
		for bx := range bw {
			encode(dst[off:off+bb], colourAt(bx, by))
			off += bb
		}
	}
	return nil
}
