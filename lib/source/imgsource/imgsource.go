// Package imgsource plays a still image as a Hap movie. The image is
// compressed once and the same frame is delivered at a fixed rate.
package imgsource

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fosdem/happlay/lib/codec"
	"github.com/fosdem/happlay/lib/encdec"
	"github.com/jhenstridge/go-inotify"
)

type Config struct {
	Path      string
	FourCC    codec.FourCC
	FrameRate float64
	// Inotify reloads the image when the file is rewritten.
	Inotify bool
}

type ImgSource struct {
	cfg    Config
	format encdec.PixelFormat
	log    *slog.Logger

	imgMu  sync.RWMutex
	img    image.Image
	data   []byte
	width  int
	height int
	padW   int
	padH   int

	cbMu sync.Mutex
	cb   func(*encdec.CompressedFrame)

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
	watcher *inotify.Watcher
}

func New(cfg Config, logger *slog.Logger) (*ImgSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	s := &ImgSource{
		cfg:    cfg,
		format: codec.Classify(cfg.FourCC).Variant.PixelFormat(),
		log:    logger.With("module", "imgsource", "path", cfg.Path),
	}
	if s.format == encdec.Unsupported {
		return nil, fmt.Errorf("%w: cannot compress images for %s", encdec.ErrUnsupportedFormat, cfg.FourCC)
	}
	if err := s.LoadImage(cfg.Path); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ImgSource) LoadImage(path string) error {
	s.log.Debug("loading image")
	imgFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	defer imgFile.Close()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", path, err)
	}
	return s.SetImage(img)
}

// SetImage compresses img and makes it the frame that is delivered from
// now on.
func (s *ImgSource) SetImage(img image.Image) error {
	data, pw, ph, err := encdec.EncodeImage(img, s.format)
	if err != nil {
		return err
	}

	s.imgMu.Lock()
	defer s.imgMu.Unlock()
	s.img = img
	s.data = data
	s.width = img.Bounds().Dx()
	s.height = img.Bounds().Dy()
	s.padW = pw
	s.padH = ph
	s.log.Info("image compressed", "width", s.width, "height", s.height, "format", s.format, "bytes", len(data))
	return nil
}

// GetImage returns the uncompressed image that is currently playing.
func (s *ImgSource) GetImage() image.Image {
	s.imgMu.RLock()
	defer s.imgMu.RUnlock()
	return s.img
}

func (s *ImgSource) CodecIdentifier() (codec.FourCC, error) {
	return s.cfg.FourCC, nil
}

func (s *ImgSource) SetFrameCallback(fn func(*encdec.CompressedFrame)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.cb = fn
}

func (s *ImgSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("already running")
	}
	if s.cfg.Inotify {
		watcher, err := inotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("could not start inotify watcher: %w", err)
		}
		if _, err := watcher.Watch(s.cfg.Path); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("could not watch %s: %w", s.cfg.Path, err)
		}
		s.watcher = watcher
		go s.watch(watcher)
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
	return nil
}

func (s *ImgSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
	close(s.stop)
	<-s.done
	s.running = false
}

func (s *ImgSource) watch(watcher *inotify.Watcher) {
	for ev := range watcher.Event {
		if ev.Mask&inotify.IN_CLOSE_WRITE != 0 {
			s.log.Debug("reloading image due to inotify event")
			time.Sleep(100 * time.Millisecond)

			if err := s.LoadImage(s.cfg.Path); err != nil {
				s.log.Error("error loading image", "err", err)
			}
		}
	}
}

func (s *ImgSource) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.cfg.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.Emit(now)
		}
	}
}

// Emit delivers the current image as one frame.
func (s *ImgSource) Emit(now time.Time) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	if s.cb == nil {
		return
	}

	s.imgMu.RLock()
	frame := &encdec.CompressedFrame{
		Width:        s.width,
		Height:       s.height,
		PaddedWidth:  s.padW,
		PaddedHeight: s.padH,
		Format:       s.format,
		BytesPerRow:  encdec.BytesPerRow(s.format, s.padW),
		// the slice is replaced, never written, on reload
		Buffer:  encdec.NewBorrowedBytes(s.data, nil),
		Arrival: now,
	}
	s.imgMu.RUnlock()

	s.cb(frame)
}
