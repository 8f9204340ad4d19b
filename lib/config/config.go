package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fosdem/happlay/lib/codec"
	"github.com/fosdem/happlay/lib/handoff"
	"github.com/fosdem/happlay/lib/log"
	"github.com/fosdem/happlay/lib/utils"
	yaml "github.com/goccy/go-yaml"
)

type Config struct {
	Window   *WindowCfg
	Movies   []*MovieCfg
	Playback *PlaybackCfg
	Api      *ApiCfg
	Log      *LogCfg
}

func Parse(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", filename, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("somehow, %s is malformed: %w", filename, err)
	}
	UnmarshalBase = filepath.Dir(absFilename)

	m := yaml.NewDecoder(f)
	cfg := &Config{}
	err = m.Decode(cfg)
	if err != nil {
		return nil, err
	}
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, err
}

// Validate checks every section and fills in defaults for the optional
// ones.
func (c *Config) Validate() error {
	var err error
	if len(c.Movies) < 1 {
		return fmt.Errorf("at least one movie should be defined")
	}

	if c.Window == nil {
		c.Window = &WindowCfg{}
	}
	if err = c.Window.Validate(); err != nil {
		return fmt.Errorf("window config is invalid: %w", err)
	}

	if c.Playback == nil {
		c.Playback = &PlaybackCfg{}
	}
	if err = c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config is invalid: %w", err)
	}

	if c.Log == nil {
		c.Log = &LogCfg{}
	}
	if err = c.Log.Validate(); err != nil {
		return fmt.Errorf("log config is invalid: %w", err)
	}

	names := make(map[string]bool)
	for i, m := range c.Movies {
		if m.Name == "" {
			return fmt.Errorf("movie %d has no name", i)
		}
		if names[m.Name] {
			return fmt.Errorf("movie name %s is used twice", m.Name)
		}
		names[m.Name] = true

		err = m.Validate()
		if err != nil {
			return fmt.Errorf("movie %s is invalid: %w", m.Name, err)
		}
	}
	return nil
}

// MoviesInLayerOrder returns the movies sorted back to front.
func (c *Config) MoviesInLayerOrder() []*MovieCfg {
	out := slices.Clone(c.Movies)
	slices.SortStableFunc(out, func(a, b *MovieCfg) int {
		return a.Z - b.Z
	})
	return out
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Movies:\n")

	for _, v := range c.MoviesInLayerOrder() {
		b.WriteString(fmt.Sprintf("  %s (%s, z=%d)\n", v.Name, v.Type, v.Z))
	}

	b.WriteString(fmt.Sprintf("\nWindow: %dx%d fullscreen=%v\n", c.Window.Width, c.Window.Height, c.Window.Fullscreen))
	b.WriteString(fmt.Sprintf("Playback: gate=%s sample_interval=%s\n", c.Playback.Gate, c.Playback.SampleInterval()))
	if c.Api != nil {
		b.WriteString(fmt.Sprintf("API: %s\n", c.Api.Bind))
	}

	return b.String()
}

type Valid interface {
	Validate() error
}

type WindowCfg struct {
	Title            string
	Width            int
	Height           int
	Fullscreen       bool
	BackgroundColour string `yaml:"background_colour"`
	VSync            *bool  `yaml:"vsync"`
}

func (w *WindowCfg) Validate() error {
	if w.Title == "" {
		w.Title = "happlay"
	}
	if w.Width == 0 && w.Height == 0 {
		w.Width, w.Height = 1280, 720
	}
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", w.Width, w.Height)
	}
	if w.BackgroundColour == "" {
		w.BackgroundColour = "#000000ff"
	}
	if !utils.ColourValidate(w.BackgroundColour) {
		return fmt.Errorf("%s is not a valid RGBA hex colour", w.BackgroundColour)
	}
	if w.VSync == nil {
		vsync := true
		w.VSync = &vsync
	}
	return nil
}

type PlaybackCfg struct {
	SampleIntervalMs int    `yaml:"sample_interval_ms"`
	Gate             string `yaml:"gate"`
	GLSLVersion      string `yaml:"glsl_version"`
}

func (p *PlaybackCfg) Validate() error {
	if p.SampleIntervalMs < 0 {
		return fmt.Errorf("sample_interval_ms must be nonnegative")
	}
	mode, err := handoff.ParseMode(p.Gate)
	if err != nil {
		return err
	}
	p.Gate = string(mode)
	return nil
}

// SampleInterval is 0 when unset, which selects the stats default.
func (p *PlaybackCfg) SampleInterval() time.Duration {
	return time.Duration(p.SampleIntervalMs) * time.Millisecond
}

func (p *PlaybackCfg) GateMode() handoff.Mode {
	return handoff.Mode(p.Gate)
}

type LogCfg struct {
	Level string
}

func (l *LogCfg) Validate() error {
	if l.Level == "" {
		l.Level = "info"
	}
	_, err := log.ParseLevel(l.Level)
	return err
}

type ApiCfg struct {
	Bind           string
	EnableProfiler bool `yaml:"enable_profiler"`
}

type MovieCfgStub struct {
	Name  string
	Type  string `yaml:"source"`
	Z     int
	Watch bool
	Layer *LayerCfg
}

type MovieCfg struct {
	MovieCfgStub
	Cfg Valid
}

// SyntheticSourceCfg generates test frames without a file.
type SyntheticSourceCfg struct {
	Codec        string
	Width        int
	Height       int
	PaddedWidth  int     `yaml:"padded_width"`
	PaddedHeight int     `yaml:"padded_height"`
	FrameRate    float64 `yaml:"frame_rate"`
	Frames       uint64
}

// FileSourceCfg probes a MOV/MP4 file for its codec and size.
type FileSourceCfg struct {
	Path      CfgPath
	FrameRate float64 `yaml:"frame_rate"`
}

// ImgSourceCfg compresses a still image.
type ImgSourceCfg struct {
	Path      CfgPath
	Codec     string
	FrameRate float64 `yaml:"frame_rate"`
}

func (s *MovieCfg) UnmarshalYAML(b []byte) error {
	err := yaml.Unmarshal(b, &s.MovieCfgStub)
	if err != nil {
		return err
	}

	switch s.Type {
	case "synthetic":
		cfg := SyntheticSourceCfg{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "file":
		cfg := FileSourceCfg{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "image":
		cfg := ImgSourceCfg{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	default:
		return fmt.Errorf("unknown source type: %s", s.Type)
	}
}

func (s *MovieCfg) Validate() error {
	if err := s.Layer.Validate(); err != nil {
		return fmt.Errorf("layer is invalid: %w", err)
	}
	if s.Watch {
		if _, ok := s.Cfg.(*SyntheticSourceCfg); ok {
			return fmt.Errorf("cannot watch a synthetic source")
		}
	}
	return s.Cfg.Validate()
}

func validateCodec(s string) error {
	if s == "" {
		return fmt.Errorf("codec must be specified")
	}
	_, err := codec.ParseFourCC(s)
	return err
}

func validateFrameRate(fps float64) error {
	if fps < 0 {
		return fmt.Errorf("frame_rate must be nonnegative")
	}
	return nil
}

func (s *SyntheticSourceCfg) Validate() error {
	if err := validateCodec(s.Codec); err != nil {
		return err
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}
	if s.PaddedWidth != 0 && s.PaddedWidth < s.Width {
		return fmt.Errorf("padded_width %d is smaller than width %d", s.PaddedWidth, s.Width)
	}
	if s.PaddedHeight != 0 && s.PaddedHeight < s.Height {
		return fmt.Errorf("padded_height %d is smaller than height %d", s.PaddedHeight, s.Height)
	}
	return validateFrameRate(s.FrameRate)
}

func (s *FileSourceCfg) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("path must be specified")
	}
	return validateFrameRate(s.FrameRate)
}

func (s *ImgSourceCfg) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("image path must be specified")
	}
	if err := validateCodec(s.Codec); err != nil {
		return err
	}
	return validateFrameRate(s.FrameRate)
}
