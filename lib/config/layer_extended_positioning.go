package config

import (
	"fmt"
)

// LayerCfgExtendedPositioning lets a layer be placed by its edges or centre
// instead of X and Y. Negative horizontal edges are in units of the window
// height.
type LayerCfgExtendedPositioning struct {
	Top    float32
	Left   float32
	Bottom float32
	Right  float32
	Cx     float32
	Cy     float32
}

func (ext *LayerCfgExtendedPositioning) empty() bool {
	return *ext == LayerCfgExtendedPositioning{}
}

// axis is one dimension of a placement: the two edge margins, the centre
// and the resulting position.
type axis struct {
	name   string
	pos    *float32
	low    float32
	high   float32
	centre float32
}

func applyExtendedPositions(l *LayerTransform, ext *LayerCfgExtendedPositioning) error {
	if ext.empty() {
		if l.Scale == 0 {
			l.Scale = 1
		}
		return nil
	}
	if l.X != 0 && (ext.Left != 0 || ext.Right != 0) {
		return fmt.Errorf("cannot set both X and Left or Right for the position")
	}
	if l.Y != 0 && (ext.Top != 0 || ext.Bottom != 0) {
		return fmt.Errorf("cannot set both Y and Top or Bottom for the position")
	}
	if ext.Top != 0 && ext.Bottom != 0 && ext.Left != 0 && ext.Right != 0 {
		return fmt.Errorf("cannot define all four edges for position")
	}

	horizontal := axis{"horisontal", &l.X, normalize(ext.Left, 9.0/16), normalize(ext.Right, 9.0/16), ext.Cx}
	vertical := axis{"vertical", &l.Y, normalize(ext.Top, 1), normalize(ext.Bottom, 1), ext.Cy}

	// two opposite margins fix the scale
	if l.Scale == 0 {
		for _, a := range []axis{horizontal, vertical} {
			if a.low != 0 && a.high != 0 {
				l.Scale = 1.0 - a.low - a.high
				break
			}
		}
	}

	for _, a := range []axis{horizontal, vertical} {
		if err := a.place(&l.Scale); err != nil {
			return err
		}
	}
	return nil
}

func (a axis) place(scale *float32) error {
	if a.centre == 0 {
		if *a.pos != 0 {
			return nil
		}
		if a.low != 0 {
			*a.pos = a.low
		} else if a.high != 0 {
			*a.pos = (1.0 - a.high) - *scale
		}
		return nil
	}

	if *scale == 0 {
		// one edge and the centre give half the size
		switch {
		case a.low != 0:
			*scale = (a.centre - a.low) * 2
		case a.high != 0:
			*scale = ((1.0 - a.centre) - a.high) * 2
		default:
			return fmt.Errorf("%s scale underconstrained", a.name)
		}
	}
	*a.pos = a.centre - (*scale / 2)
	return nil
}
