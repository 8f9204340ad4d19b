// Package player opens the configured movies and keeps them on screen.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fosdem/happlay/lib/api"
	"github.com/fosdem/happlay/lib/config"
	"github.com/fosdem/happlay/lib/log"
	"github.com/fosdem/happlay/lib/movie"
	"github.com/fosdem/happlay/lib/present"
	"github.com/fosdem/happlay/lib/rendering"
	"github.com/fosdem/happlay/lib/rendering/shaders"
	"github.com/fosdem/happlay/lib/source/imgsource"
	"github.com/jhenstridge/go-inotify"
)

type entry struct {
	cfg    *config.MovieCfg
	movie  *movie.Movie
	img    *imgsource.ImgSource
	err    error
	hidden bool
}

// Player owns every movie. Opening, closing and drawing happen on the render
// thread; other goroutines hand work to it through Do.
type Player struct {
	cfg     *config.Config
	device  rendering.Device
	shaders *shaders.Library
	log     *slog.Logger

	// handed to movies and sources, which tag their own module
	sourceLog *slog.Logger

	mu      sync.Mutex
	entries []*entry
	byName  map[string]*entry

	tasks    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
	shutdown atomic.Bool

	watcher *inotify.Watcher

	listenerMu sync.Mutex
	listener   map[string][]EventListener

	// set by the window, nil without one
	fullscreen func()
}

var ErrStopped = errors.New("player stopped")

var _ api.Player = (*Player)(nil)

func New(cfg *config.Config, device rendering.Device, lib *shaders.Library) *Player {
	p := &Player{
		cfg:       cfg,
		device:    device,
		shaders:   lib,
		log:       log.Module("player"),
		sourceLog: slog.Default(),
		byName:    make(map[string]*entry),
		tasks:     make(chan func(), 16),
		stopped:   make(chan struct{}),
		listener:  make(map[string][]EventListener),
	}
	for _, mc := range cfg.MoviesInLayerOrder() {
		e := &entry{cfg: mc}
		p.entries = append(p.entries, e)
		p.byName[mc.Name] = e
	}
	return p
}

func (p *Player) options() movie.Options {
	return movie.Options{
		Device:         p.device,
		Shaders:        p.shaders,
		GateMode:       p.cfg.Playback.GateMode(),
		SampleInterval: p.cfg.Playback.SampleInterval(),
		Logger:         p.sourceLog,
	}
}

// open replaces whatever e was playing. Failures are kept on the entry so
// the rest of the movies keep playing.
func (p *Player) open(e *entry) error {
	p.mu.Lock()
	old := e.movie
	e.movie, e.img = nil, nil
	p.mu.Unlock()
	if old != nil {
		old.Close()
	}

	m, img, err := openMovie(e.cfg, p.options())
	p.mu.Lock()
	e.movie, e.img, e.err = m, img, err
	p.mu.Unlock()

	event := api.MovieEvent{Event: api.EventMovieOpened, Movie: e.cfg.Name}
	if err != nil {
		p.log.Error("could not open movie", "movie", e.cfg.Name, "err", err)
		event.Error = err.Error()
	}
	p.invoke(api.EventMovieOpened, event)
	return err
}

// OpenAll opens every movie and returns the joined open errors.
func (p *Player) OpenAll() error {
	var errs []error
	for _, e := range p.entries {
		if err := p.open(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Player) ReopenAll() {
	_ = p.OpenAll()
}

// Reopen queues a reopen of one movie on the render thread and waits for it.
func (p *Player) Reopen(name string) error {
	p.mu.Lock()
	e, ok := p.byName[name]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrUnknownMovie, name)
	}
	return p.Do(func() error {
		return p.open(e)
	})
}

// Do runs fn on the render thread during the next RunTasks and returns its
// error, or ErrStopped once Stop or CloseAll has run.
func (p *Player) Do(fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		result <- fn()
	}
	select {
	case p.tasks <- task:
	case <-p.stopped:
		return ErrStopped
	}
	select {
	case err := <-result:
		return err
	case <-p.stopped:
		return ErrStopped
	}
}

// RunTasks runs the work queued by Do. It never blocks.
func (p *Player) RunTasks() {
	for {
		select {
		case fn := <-p.tasks:
			fn()
		default:
			return
		}
	}
}

func (p *Player) ToggleMovie(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.entries) {
		return fmt.Errorf("movie %d out of range", index)
	}
	e := p.entries[index]
	e.hidden = !e.hidden
	p.log.Info("movie visibility toggled", "movie", e.cfg.Name, "hidden", e.hidden)
	p.invoke(api.EventMovieToggled, api.MovieEvent{Event: api.EventMovieToggled, Movie: e.cfg.Name, Hidden: e.hidden})
	return nil
}

func (p *Player) ToggleFullscreen() {
	if p.fullscreen != nil {
		p.fullscreen()
	}
}

func (p *Player) RequestShutdown() {
	p.shutdown.Store(true)
}

func (p *Player) ShutdownRequested() bool {
	return p.shutdown.Load()
}

// Movie returns the open movie by name.
func (p *Player) Movie(name string) (*movie.Movie, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byName[name]
	if !ok || e.movie == nil {
		return nil, false
	}
	return e.movie, true
}

func (p *Player) ImageSource(name string) (*imgsource.ImgSource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byName[name]
	if !ok || e.img == nil {
		return nil, false
	}
	return e.img, true
}

// Statuses lists the movies in layer order.
func (p *Player) Statuses() []movie.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]movie.Status, 0, len(p.entries))
	for _, e := range p.entries {
		if e.movie == nil {
			s := movie.Status{Name: e.cfg.Name, Closed: true}
			if e.err != nil {
				s.Failed = e.err.Error()
			}
			out = append(out, s)
			continue
		}
		out = append(out, e.movie.Status())
	}
	return out
}

// DrawAll draws the visible movies back to front into a width x height
// framebuffer.
func (p *Player) DrawAll(width, height int) {
	p.mu.Lock()
	entries := make([]*entry, 0, len(p.entries))
	for _, e := range p.entries {
		if e.movie != nil && !e.hidden {
			entries = append(entries, e)
		}
	}
	p.mu.Unlock()

	for _, e := range entries {
		vp := present.Viewport{
			Width:  width,
			Height: height,
			Region: e.cfg.Layer.Region(),
		}
		if err := e.movie.Draw(vp); err != nil {
			p.log.Debug("could not draw movie", "movie", e.cfg.Name, "err", err)
		}
	}
}

// Stop makes pending and future Do calls return ErrStopped. The render
// thread no longer runs tasks after it.
func (p *Player) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopped)
	})
}

// CloseAll stops watching and closes every movie.
func (p *Player) CloseAll() {
	p.Stop()
	p.stopWatching()
	for _, e := range p.entries {
		p.mu.Lock()
		m := e.movie
		e.movie, e.img = nil, nil
		p.mu.Unlock()
		if m != nil {
			m.Close()
		}
	}
}

// Watch reopens file movies marked watch: true whenever their file is
// rewritten.
func (p *Player) Watch() error {
	paths := make(map[string]string)
	for _, e := range p.entries {
		if path := watchedPath(e.cfg); path != "" {
			paths[path] = e.cfg.Name
		}
	}
	if len(paths) == 0 {
		return nil
	}

	watcher, err := inotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not start inotify watcher: %w", err)
	}
	for path := range paths {
		if _, err := watcher.Watch(path); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("could not watch %s: %w", path, err)
		}
	}
	p.watcher = watcher

	go func() {
		for ev := range watcher.Event {
			if ev.Mask&inotify.IN_CLOSE_WRITE == 0 {
				continue
			}
			name, ok := paths[ev.Name]
			if !ok {
				continue
			}
			p.log.Info("movie file changed, reopening", "movie", name)
			// give the writer a moment to settle
			time.Sleep(100 * time.Millisecond)
			if err := p.Reopen(name); err != nil {
				p.log.Error("could not reopen movie", "movie", name, "err", err)
			}
		}
	}()
	return nil
}

func (p *Player) stopWatching() {
	if p.watcher != nil {
		_ = p.watcher.Close()
		p.watcher = nil
	}
}
