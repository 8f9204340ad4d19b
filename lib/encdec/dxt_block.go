package encdec

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// Block is the 16 pixels of a 4x4 block in row-major order.
type Block [BlockSize * BlockSize]color.NRGBA

func expand565(v uint16) [3]int {
	r := int(v>>11) & 0x1f
	g := int(v>>5) & 0x3f
	b := int(v) & 0x1f
	return [3]int{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2}
}

func luma(c color.NRGBA) int {
	return 299*int(c.R) + 587*int(c.G) + 114*int(c.B)
}

// EncodeDXT1Block range-fits the block between its darkest and brightest
// pixel. Alpha is ignored.
func EncodeDXT1Block(dst []byte, px *Block) {
	lo, hi := px[0], px[0]
	for _, c := range px[1:] {
		if luma(c) < luma(lo) {
			lo = c
		}
		if luma(c) > luma(hi) {
			hi = c
		}
	}
	c0 := rgb565(hi.R, hi.G, hi.B)
	c1 := rgb565(lo.R, lo.G, lo.B)
	if c0 < c1 {
		c0, c1 = c1, c0
	}
	binary.LittleEndian.PutUint16(dst[0:], c0)
	binary.LittleEndian.PutUint16(dst[2:], c1)
	if c0 == c1 {
		clear(dst[4:8])
		return
	}

	e0, e1 := expand565(c0), expand565(c1)
	var palette [4][3]int
	palette[0] = e0
	palette[1] = e1
	for ch := range 3 {
		palette[2][ch] = (2*e0[ch] + e1[ch]) / 3
		palette[3][ch] = (e0[ch] + 2*e1[ch]) / 3
	}

	var indices uint32
	for i, c := range px {
		best, bestDist := 0, -1
		for p, pc := range palette {
			dr := int(c.R) - pc[0]
			dg := int(c.G) - pc[1]
			db := int(c.B) - pc[2]
			d := dr*dr + dg*dg + db*db
			if bestDist < 0 || d < bestDist {
				best, bestDist = p, d
			}
		}
		indices |= uint32(best) << (2 * i)
	}
	binary.LittleEndian.PutUint32(dst[4:], indices)
}

// encodeAlphaBlock writes the 8 byte alpha half of a DXT5 block.
func encodeAlphaBlock(dst []byte, px *Block) {
	a0, a1 := px[0].A, px[0].A
	for _, c := range px[1:] {
		a0 = max(a0, c.A)
		a1 = min(a1, c.A)
	}
	dst[0] = a0
	dst[1] = a1
	if a0 == a1 {
		clear(dst[2:8])
		return
	}

	var palette [8]int
	palette[0] = int(a0)
	palette[1] = int(a1)
	for i := 2; i < 8; i++ {
		palette[i] = ((8-i)*int(a0) + (i-1)*int(a1)) / 7
	}

	var bits uint64
	for i, c := range px {
		best, bestDist := 0, 256
		for p, pa := range palette {
			d := int(c.A) - pa
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = p, d
			}
		}
		bits |= uint64(best) << (3 * i)
	}
	for i := range 6 {
		dst[2+i] = byte(bits >> (8 * i))
	}
}

func EncodeDXT5Block(dst []byte, px *Block) {
	encodeAlphaBlock(dst[0:8], px)
	EncodeDXT1Block(dst[8:16], px)
}

// EncodeYCoCgDXT5Block converts the block to scaled YCoCg with a scale of 1
// and encodes it as DXT5.
func EncodeYCoCgDXT5Block(dst []byte, px *Block) {
	var conv Block
	for i, c := range px {
		r, g, b := int(c.R), int(c.G), int(c.B)
		conv[i] = color.NRGBA{
			R: clampByte((r-b+1)/2 + 128),
			G: clampByte((-r+2*g-b+2)/4 + 128),
			B: 0,
			A: clampByte((r + 2*g + b + 2) / 4),
		}
	}
	EncodeDXT5Block(dst, &conv)
}

// EncodeImage compresses img into f. The result is padded to whole blocks by
// repeating the last row and column.
func EncodeImage(img image.Image, f PixelFormat) (data []byte, paddedWidth, paddedHeight int, err error) {
	var encode func([]byte, *Block)
	switch f {
	case DXT1RGB:
		encode = EncodeDXT1Block
	case DXT5RGBA:
		encode = EncodeDXT5Block
	case DXT5YCoCg:
		encode = EncodeYCoCgDXT5Block
	default:
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0, fmt.Errorf("%w: empty image", ErrInvalidFrameGeometry)
	}
	paddedWidth, paddedHeight = PadToBlock(w), PadToBlock(h)
	bb := BlockBytes(f)
	data = make([]byte, paddedWidth/BlockSize*paddedHeight/BlockSize*bb)

	var px Block
	off := 0
	for by := 0; by < paddedHeight; by += BlockSize {
		for bx := 0; bx < paddedWidth; bx += BlockSize {
			for i := range px {
				x := min(bx+i%BlockSize, w-1)
				y := min(by+i/BlockSize, h-1)
				px[i] = color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			}
			encode(data[off:off+bb], &px)
			off += bb
		}
	}
	return data, paddedWidth, paddedHeight, nil
}
