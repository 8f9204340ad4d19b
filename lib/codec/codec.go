// Package codec classifies a movie's video track by the fourCC found in its
// sample description.
package codec

import (
	"fmt"

	"github.com/fosdem/happlay/lib/encdec"
)

type FourCC [4]byte

// ParseFourCC turns a four character string into a FourCC.
func ParseFourCC(s string) (FourCC, error) {
	var f FourCC
	if len(s) != 4 {
		return f, fmt.Errorf("fourCC %q must be exactly 4 bytes", s)
	}
	copy(f[:], s)
	return f, nil
}

func (f FourCC) String() string {
	for _, c := range f {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%02x%02x%02x%02x", f[0], f[1], f[2], f[3])
		}
	}
	return string(f[:])
}

type Variant int

const (
	Unsupported Variant = iota
	Hap
	HapAlpha
	HapQ
)

var known = map[FourCC]Variant{
	{'H', 'a', 'p', '1'}: Hap,
	{'H', 'a', 'p', '5'}: HapAlpha,
	{'H', 'a', 'p', 'Y'}: HapQ,
}

func (v Variant) String() string {
	switch v {
	case Hap:
		return "Hap"
	case HapAlpha:
		return "Hap Alpha"
	case HapQ:
		return "Hap Q"
	default:
		return "unsupported"
	}
}

// PixelFormat is the frame format a decoder produces for this variant.
func (v Variant) PixelFormat() encdec.PixelFormat {
	switch v {
	case Hap:
		return encdec.DXT1RGB
	case HapAlpha:
		return encdec.DXT5RGBA
	case HapQ:
		return encdec.DXT5YCoCg
	default:
		return encdec.Unsupported
	}
}

// Info is fixed when a movie is opened.
type Info struct {
	Variant Variant
	Raw     FourCC
}

// Classify never fails: unknown identifiers map to Unsupported and it is up
// to the upload path to refuse their frames.
func Classify(raw FourCC) Info {
	return Info{Variant: known[raw], Raw: raw}
}

func (i Info) Supported() bool {
	return i.Variant != Unsupported
}

// Name is the human readable codec name, e.g. "Hap Q (HapY)".
func (i Info) Name() string {
	return fmt.Sprintf("%s (%s)", i.Variant, i.Raw)
}
