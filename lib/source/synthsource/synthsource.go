// Package synthsource generates block-compressed test frames at a fixed
// rate, the way a decoder would deliver them.
package synthsource

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/fosdem/happlay/lib/codec"
	"github.com/fosdem/happlay/lib/encdec"
	"github.com/fosdem/happlay/lib/source/mp4probe"
)

type Config struct {
	FourCC codec.FourCC
	// Content size.
	Width  int
	Height int
	// Padded size, 0 means the next multiple of the block size.
	PaddedWidth  int
	PaddedHeight int
	FrameRate    float64
	// Frames stops the source after this many frames, 0 runs forever.
	Frames uint64
}

// FromTrack builds a config that mimics the probed track.
func FromTrack(info mp4probe.TrackInfo, frameRate float64) Config {
	return Config{
		FourCC:    info.FourCC,
		Width:     info.Width,
		Height:    info.Height,
		FrameRate: frameRate,
	}
}

func (c *Config) normalise() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	}
	if c.PaddedWidth == 0 {
		c.PaddedWidth = encdec.PadToBlock(c.Width)
	}
	if c.PaddedHeight == 0 {
		c.PaddedHeight = encdec.PadToBlock(c.Height)
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 30
	}
	return nil
}

type Source struct {
	cfg    Config
	format encdec.PixelFormat
	fill   encdec.PixelFormat
	size   int
	pool   *encdec.BufferPool
	log    *slog.Logger

	// held while the callback runs
	cbMu sync.Mutex
	cb   func(*encdec.CompressedFrame)

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	frame   uint64
}

func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	format := codec.Classify(cfg.FourCC).Variant.PixelFormat()
	fill := format
	if fill == encdec.Unsupported {
		// frames of unknown codecs still need bytes
		fill = encdec.DXT1RGB
	}
	// Odd padded sizes are kept so that geometry errors can be exercised;
	// the buffer then covers the next block-aligned size.
	size := encdec.BytesPerRow(fill, encdec.PadToBlock(cfg.PaddedWidth)) * encdec.PadToBlock(cfg.PaddedHeight)

	return &Source{
		cfg:    cfg,
		format: format,
		fill:   fill,
		size:   size,
		pool:   encdec.NewBufferPool(size, 3),
		log:    logger.With("module", "synthsource", "codec", cfg.FourCC.String()),
	}, nil
}

func (s *Source) CodecIdentifier() (codec.FourCC, error) {
	return s.cfg.FourCC, nil
}

// SetFrameCallback waits for a running callback before replacing it.
func (s *Source) SetFrameCallback(fn func(*encdec.CompressedFrame)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.cb = fn
}

func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("already running")
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
	s.log.Info("started",
		"width", s.cfg.Width, "height", s.cfg.Height,
		"padded_width", s.cfg.PaddedWidth, "padded_height", s.cfg.PaddedHeight,
		"fps", s.cfg.FrameRate)
	return nil
}

func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	<-s.done
	s.running = false
}

// Done is closed when the source stopped by itself after Config.Frames.
func (s *Source) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Source) Pool() *encdec.BufferPool {
	return s.pool
}

func (s *Source) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.cfg.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.Emit(now)
			if s.cfg.Frames > 0 && s.frameCount() >= s.cfg.Frames {
				s.log.Info("all frames sent", "frames", s.cfg.Frames)
				return
			}
		}
	}
}

func (s *Source) frameCount() uint64 {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.frame
}

// Emit builds the next frame and hands it to the callback. It is what the
// ticker calls and can be used directly for deterministic playback.
func (s *Source) Emit(now time.Time) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()

	n := s.frame
	s.frame++

	buf := s.pool.NewBuffer(s.size)
	err := encdec.FillBlocks(buf.Bytes(), s.fill,
		encdec.PadToBlock(s.cfg.PaddedWidth), encdec.PadToBlock(s.cfg.PaddedHeight),
		func(bx, by int) color.NRGBA { return Pattern(n, bx, by) })
	if err != nil {
		buf.Release()
		s.log.Error("could not build frame", "err", err)
		return
	}

	frame := &encdec.CompressedFrame{
		Width:        s.cfg.Width,
		Height:       s.cfg.Height,
		PaddedWidth:  s.cfg.PaddedWidth,
		PaddedHeight: s.cfg.PaddedHeight,
		Format:       s.format,
		BytesPerRow:  encdec.BytesPerRow(s.fill, s.cfg.PaddedWidth),
		Buffer:       buf,
		Arrival:      now,
	}
	if s.cb == nil {
		frame.Release()
		return
	}
	s.cb(frame)
}

var bars = []color.NRGBA{
	{R: 192, G: 192, B: 192, A: 255},
	{R: 192, G: 192, B: 0, A: 255},
	{R: 0, G: 192, B: 192, A: 255},
	{R: 0, G: 192, B: 0, A: 255},
	{R: 192, G: 0, B: 192, A: 255},
	{R: 192, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 192, A: 255},
}

// Pattern is the colour of block (bx, by) in frame n: scrolling colour bars
// with a translucent bottom band.
func Pattern(n uint64, bx, by int) color.NRGBA {
	c := bars[(uint64(bx/2)+n)%uint64(len(bars))]
	if by%8 == 7 {
		c.A = 128
	}
	return c
}
