// Package movie ties a frame source to a texture and draws it.
package movie

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fosdem/happlay/lib/codec"
	"github.com/fosdem/happlay/lib/encdec"
	"github.com/fosdem/happlay/lib/handoff"
	"github.com/fosdem/happlay/lib/metrics"
	"github.com/fosdem/happlay/lib/present"
	"github.com/fosdem/happlay/lib/rendering"
	"github.com/fosdem/happlay/lib/rendering/shaders"
	"github.com/fosdem/happlay/lib/stats"
	"github.com/google/uuid"
)

type Options struct {
	Name    string
	Device  rendering.Device
	Shaders *shaders.Library

	Opener      Opener
	BytesOpener BytesOpener

	GateMode       handoff.Mode
	SampleInterval time.Duration
	Clock          stats.Clock
	Logger         *slog.Logger
}

// Movie plays one source into one texture. OnNewFrame may be called from any
// thread; Draw and Close belong to the render thread.
type Movie struct {
	id    uuid.UUID
	name  string
	codec codec.Info

	src       FrameSource
	gate      handoff.Gate
	cache     *rendering.TextureCache
	uploader  *rendering.FrameUploader
	presenter *present.Presenter
	shaders   *shaders.Library
	stats     *stats.PlaybackStats
	metrics   metrics.MovieMetrics
	log       *slog.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	failed    atomic.Pointer[error]

	dropMu sync.Mutex
	drops  map[string]uint64
}

var _ FrameReceiver = (*Movie)(nil)

// Open opens path with opts.Opener and starts playback.
func Open(path string, opts Options) (*Movie, error) {
	if opts.Opener == nil {
		return nil, &OpenError{Path: path, Err: errors.New("no opener configured")}
	}
	if err := opts.check(); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	src, err := opts.Opener(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if opts.Name == "" {
		opts.Name = path
	}
	return start(path, src, opts)
}

// OpenBytes plays an in-memory movie.
func OpenBytes(data []byte, hint string, opts Options) (*Movie, error) {
	label := fmt.Sprintf("<%d bytes>", len(data))
	if opts.BytesOpener == nil {
		return nil, &OpenError{Path: label, Err: errors.New("no bytes opener configured")}
	}
	if err := opts.check(); err != nil {
		return nil, &OpenError{Path: label, Err: err}
	}
	src, err := opts.BytesOpener(data, hint)
	if err != nil {
		return nil, &OpenError{Path: label, Err: err}
	}
	if opts.Name == "" {
		opts.Name = label
	}
	return start(label, src, opts)
}

// OpenSource plays an already constructed source.
func OpenSource(src FrameSource, opts Options) (*Movie, error) {
	if err := opts.check(); err != nil {
		return nil, &OpenError{Path: opts.Name, Err: err}
	}
	return start(opts.Name, src, opts)
}

func (o *Options) check() error {
	if o.Device == nil {
		return errors.New("no device")
	}
	if o.Shaders == nil {
		return errors.New("no shader library")
	}
	return nil
}

func start(path string, src FrameSource, opts Options) (*Movie, error) {
	raw, err := src.CodecIdentifier()
	if err != nil {
		src.Stop()
		return nil, &OpenError{Path: path, Err: err}
	}

	gate, err := handoff.New(opts.GateMode)
	if err != nil {
		src.Stop()
		return nil, &OpenError{Path: path, Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	logger = logger.With("module", "movie", "movie", opts.Name, "id", id.String())

	m := &Movie{
		id:        id,
		name:      opts.Name,
		codec:     codec.Classify(raw),
		src:       src,
		gate:      gate,
		cache:     rendering.NewTextureCache(opts.Device, logger),
		uploader:  rendering.NewFrameUploader(opts.Device),
		presenter: present.NewPresenter(opts.Device, opts.Shaders, logger),
		shaders:   opts.Shaders,
		stats:     stats.NewPlaybackStats(opts.Clock, opts.SampleInterval),
		metrics:   metrics.NewMovieMetrics(opts.Name),
		log:       logger,
		drops:     make(map[string]uint64),
	}

	if m.codec.Supported() {
		m.log.Info("opened movie", "codec", m.codec.Name())
	} else {
		m.log.Warn("codec is not supported, frames will be dropped", "codec", m.codec.Name())
	}

	m.shaders.Acquire()
	src.SetFrameCallback(m.OnNewFrame)
	if err := src.Start(); err != nil {
		src.SetFrameCallback(nil)
		src.Stop()
		m.shaders.Release()
		m.metrics.Forget()
		return nil, &OpenError{Path: path, Err: fmt.Errorf("could not start source: %w", err)}
	}
	return m, nil
}

func (m *Movie) OnNewFrame(frame *encdec.CompressedFrame) {
	if m.closed.Load() {
		frame.Release()
		m.log.Debug("frame after close", "err", ErrClosed)
		return
	}
	m.metrics.FramesReceived.Inc()

	m.stats.Tick()
	m.metrics.PlaybackFramerate.Set(m.stats.Framerate())

	if !m.codec.Supported() {
		frame.Release()
		m.drop(metrics.ReasonUnsupported, fmt.Errorf("%w: codec %s", encdec.ErrUnsupportedFormat, m.codec.Raw))
		return
	}
	if m.Failed() != nil {
		frame.Release()
		m.drop(metrics.ReasonAllocation, m.Failed())
		return
	}

	allocations := m.cache.Allocations()
	err := m.gate.Update(func(*rendering.Texture) (*rendering.Texture, error) {
		return m.uploader.Deliver(m.cache, frame)
	})
	if n := m.cache.Allocations(); n != allocations {
		m.metrics.TextureAllocations.Add(float64(n - allocations))
	}
	if err != nil {
		m.handleUploadError(err)
		return
	}
	m.metrics.FramesUploaded.Inc()
}

func (m *Movie) handleUploadError(err error) {
	switch {
	case errors.Is(err, rendering.ErrTextureAllocation):
		// storage cannot be created, stop trying for this movie
		m.failed.Store(&err)
		m.log.Error("texture allocation failed, movie stopped", "err", err)
		m.drop(metrics.ReasonAllocation, err)
	case errors.Is(err, encdec.ErrInvalidFrameGeometry):
		m.drop(metrics.ReasonGeometry, err)
	case errors.Is(err, encdec.ErrUnsupportedFormat):
		m.drop(metrics.ReasonFormat, err)
	case errors.Is(err, encdec.ErrBufferTooSmall):
		m.drop(metrics.ReasonBuffer, err)
	default:
		m.drop(metrics.ReasonUpload, err)
	}
}

// drop records a skipped frame. The first contract violation of each kind
// is logged as a warning, everything else only at debug level.
func (m *Movie) drop(reason string, err error) {
	m.metrics.Dropped(reason)

	m.dropMu.Lock()
	m.drops[reason]++
	n := m.drops[reason]
	m.dropMu.Unlock()

	quiet := reason == metrics.ReasonFormat || reason == metrics.ReasonUnsupported
	if n == 1 && !quiet {
		m.log.Warn("dropping frame", "reason", reason, "err", err)
	} else {
		m.log.Debug("dropping frame", "reason", reason, "err", err, "count", n)
	}
}

// ReleaseFrame unpublishes the current texture and frees its storage. The
// next frame allocates it again.
func (m *Movie) ReleaseFrame() {
	_ = m.gate.Update(func(*rendering.Texture) (*rendering.Texture, error) {
		m.cache.Release()
		return nil, nil
	})
}

// Texture is the texture the next Draw shows, or nil before the first frame.
func (m *Movie) Texture() *rendering.Texture {
	return m.gate.Current()
}

func (m *Movie) Codec() codec.Info {
	return m.codec
}

// PlaybackFramerate is the decode callback rate at the last sample boundary.
func (m *Movie) PlaybackFramerate() float64 {
	return m.stats.Framerate()
}

func (m *Movie) ID() uuid.UUID {
	return m.id
}

func (m *Movie) Name() string {
	return m.name
}

// Failed returns the error that stopped the movie, if any.
func (m *Movie) Failed() error {
	if err := m.failed.Load(); err != nil {
		return *err
	}
	return nil
}

// Draw shows the current texture fitted into vp. Before the first frame and
// for unsupported codecs it draws nothing.
func (m *Movie) Draw(vp present.Viewport) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !m.codec.Supported() {
		return nil
	}

	var err error
	m.gate.View(func(cur *rendering.Texture) {
		if cur == nil {
			return
		}
		err = m.presenter.Draw(cur, vp)
		if err == nil {
			m.metrics.FramesDrawn.Inc()
		}
	})
	return err
}

// Close stops the source and frees the texture. The frame callback is
// unregistered and the source stopped before anything is freed, so no
// upload can touch the texture during teardown.
func (m *Movie) Close() {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.src.SetFrameCallback(nil)
		m.src.Stop()
		m.gate.Flush()
		m.ReleaseFrame()
		m.shaders.Release()
		m.metrics.Forget()
		m.log.Info("closed movie", "frames", m.stats.FrameCount())
	})
}
