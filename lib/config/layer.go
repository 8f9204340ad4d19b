package config

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	yaml "github.com/goccy/go-yaml"
)

// LayerTransform places a movie in the window. X and Y are the top left
// corner and Scale the size, all as fractions of the window.
type LayerTransform struct {
	X     float32
	Y     float32
	Scale float32
}

type LayerCfg struct {
	LayerTransform
	LayerCfgExtendedPositioning
}

func (l *LayerCfg) Validate() error {
	if l == nil {
		return nil
	}
	err := applyExtendedPositions(&l.LayerTransform, &l.LayerCfgExtendedPositioning)
	if err != nil {
		return err
	}
	if l.Scale <= 0 || l.Scale > 1 {
		return fmt.Errorf("layer scale %g is out of range (0, 1]", l.Scale)
	}
	return nil
}

// Region is the layer rectangle in normalised device coordinates
// (x0, y0, x1, y1). A nil layer covers the whole window.
func (l *LayerCfg) Region() mgl32.Vec4 {
	if l == nil {
		return mgl32.Vec4{-1, -1, 1, 1}
	}
	return mgl32.Vec4{
		l.X*2 - 1,
		1 - (l.Y+l.Scale)*2,
		(l.X+l.Scale)*2 - 1,
		1 - l.Y*2,
	}
}

func (l *LayerCfg) UnmarshalYAML(b []byte) error {
	err := yaml.Unmarshal(b, &l.LayerTransform)
	if err != nil {
		return err
	}

	err = yaml.Unmarshal(b, &l.LayerCfgExtendedPositioning)
	if err != nil {
		return err
	}
	return nil
}

func normalize(value float32, aspect float32) float32 {
	if value >= 0 {
		return value
	}
	value *= -1
	value *= aspect
	return value
}
