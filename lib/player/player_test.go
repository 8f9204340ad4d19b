package player

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fosdem/happlay/lib/api"
	"github.com/fosdem/happlay/lib/config"
	"github.com/fosdem/happlay/lib/movie"
	"github.com/fosdem/happlay/lib/rendering/renderingtest"
	"github.com/fosdem/happlay/lib/rendering/shaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCompiler struct{ next uint32 }

func (c *nopCompiler) Compile(string, string) (uint32, error) {
	c.next++
	return c.next, nil
}

func (c *nopCompiler) Delete(uint32) {}

func synthetic(name string, z int, codec string, layer *config.LayerCfg) *config.MovieCfg {
	return &config.MovieCfg{
		MovieCfgStub: config.MovieCfgStub{Name: name, Type: "synthetic", Z: z, Layer: layer},
		Cfg: &config.SyntheticSourceCfg{
			Codec:     codec,
			Width:     16,
			Height:    16,
			FrameRate: 200,
		},
	}
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), "still.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestPlayer(t *testing.T, movies ...*config.MovieCfg) (*Player, *renderingtest.Device) {
	t.Helper()
	cfg := &config.Config{Movies: movies}
	require.NoError(t, cfg.Validate())

	dev := renderingtest.NewDevice()
	p := New(cfg, dev, shaders.NewLibrary(&nopCompiler{}, "", nil))
	t.Cleanup(p.CloseAll)
	return p, dev
}

func hasTexture(p *Player, name string) func() bool {
	return func() bool {
		m, ok := p.Movie(name)
		return ok && m.Texture() != nil
	}
}

// runTasks stands in for the render loop.
func runTasks(t *testing.T, p *Player) {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				p.RunTasks()
				time.Sleep(time.Millisecond)
			}
		}
	}()
}

func TestOpenAllKeepsGoingPastFailures(t *testing.T) {
	broken := &config.MovieCfg{
		MovieCfgStub: config.MovieCfgStub{Name: "broken", Type: "file", Z: 5},
		Cfg:          &config.FileSourceCfg{Path: "/nonexistent/movie.mov"},
	}
	p, _ := newTestPlayer(t,
		synthetic("front", 1, "HapY", &config.LayerCfg{LayerTransform: config.LayerTransform{Scale: 0.5}}),
		broken,
		synthetic("back", 0, "Hap1", nil),
	)

	err := p.OpenAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, movie.ErrOpen)

	statuses := p.Statuses()
	require.Len(t, statuses, 3)
	assert.Equal(t, "back", statuses[0].Name)
	assert.Equal(t, "front", statuses[1].Name)
	assert.Equal(t, "broken", statuses[2].Name)
	assert.NotEmpty(t, statuses[2].Failed)
	assert.True(t, statuses[2].Closed)
	assert.Equal(t, "Hap Q", statuses[1].Variant)

	_, ok := p.Movie("broken")
	assert.False(t, ok)
}

func TestDrawAllInLayerOrder(t *testing.T) {
	p, dev := newTestPlayer(t,
		synthetic("front", 1, "Hap5", &config.LayerCfg{LayerTransform: config.LayerTransform{Scale: 0.5}}),
		synthetic("back", 0, "Hap1", nil),
	)
	require.NoError(t, p.OpenAll())
	require.Eventually(t, hasTexture(p, "back"), 5*time.Second, time.Millisecond)
	require.Eventually(t, hasTexture(p, "front"), 5*time.Second, time.Millisecond)

	back, _ := p.Movie("back")
	front, _ := p.Movie("front")

	before := len(dev.Draws())
	p.DrawAll(200, 200)
	draws := dev.Draws()[before:]
	require.Len(t, draws, 2)
	assert.Equal(t, back.Texture().ID, draws[0].Texture)
	assert.Equal(t, front.Texture().ID, draws[1].Texture)
	// the front layer sits in the top left quarter
	assert.InDelta(t, -1, draws[1].Quad.Rect[0], 1e-5)
	assert.InDelta(t, 0, draws[1].Quad.Rect[2], 1e-5)

	require.NoError(t, p.ToggleMovie(0))
	before = len(dev.Draws())
	p.DrawAll(200, 200)
	draws = dev.Draws()[before:]
	require.Len(t, draws, 1)
	assert.Equal(t, front.Texture().ID, draws[0].Texture)

	assert.Error(t, p.ToggleMovie(2))
	assert.Error(t, p.ToggleMovie(-1))
}

func TestReopen(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))
	require.NoError(t, p.OpenAll())
	runTasks(t, p)

	old, ok := p.Movie("bars")
	require.True(t, ok)

	require.NoError(t, p.Reopen("bars"))
	reopened, ok := p.Movie("bars")
	require.True(t, ok)
	assert.NotEqual(t, old.ID(), reopened.ID())
	assert.True(t, old.Status().Closed)

	err := p.Reopen("nope")
	assert.ErrorIs(t, err, api.ErrUnknownMovie)
}

func TestReopenWhileReading(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))
	require.NoError(t, p.OpenAll())

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			p.Statuses()
			p.Movie("bars")
			p.ImageSource("bars")
		}
	}()

	for range 20 {
		require.NoError(t, p.open(p.entries[0]))
	}
	close(done)
	wg.Wait()

	_, ok := p.Movie("bars")
	assert.True(t, ok)
}

func TestStopReleasesPendingDo(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))

	ran := make(chan struct{}, 1)
	result := make(chan error, 1)
	go func() {
		result <- p.Do(func() error {
			ran <- struct{}{}
			return nil
		})
	}()

	// nothing runs the queue, so Do waits until Stop
	select {
	case err := <-result:
		t.Fatalf("Do returned before Stop: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	p.Stop()
	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("Do still waiting after Stop")
	}
	assert.Empty(t, ran)

	// CloseAll after Stop still closes the movies
	require.NoError(t, p.open(p.entries[0]))
	p.CloseAll()
	for _, s := range p.Statuses() {
		assert.True(t, s.Closed)
	}
}

// moduleCounter records how many module attributes each log record carries.
type moduleCounter struct {
	mu     *sync.Mutex
	counts *[]int
	attrs  []slog.Attr
}

func newModuleCounter() *moduleCounter {
	return &moduleCounter{mu: &sync.Mutex{}, counts: &[]int{}}
}

func (h *moduleCounter) Enabled(context.Context, slog.Level) bool { return true }

func (h *moduleCounter) Handle(_ context.Context, r slog.Record) error {
	n := 0
	count := func(a slog.Attr) bool {
		if a.Key == "module" {
			n++
		}
		return true
	}
	for _, a := range h.attrs {
		count(a)
	}
	r.Attrs(count)
	h.mu.Lock()
	*h.counts = append(*h.counts, n)
	h.mu.Unlock()
	return nil
}

func (h *moduleCounter) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

func (h *moduleCounter) WithGroup(string) slog.Handler { return h }

func (h *moduleCounter) Counts() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int{}, *h.counts...)
}

func TestMovieLogsCarryOneModule(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))
	rec := newModuleCounter()
	p.sourceLog = slog.New(rec)

	require.NoError(t, p.OpenAll())
	p.CloseAll()

	counts := rec.Counts()
	require.NotEmpty(t, counts)
	for _, n := range counts {
		assert.Equal(t, 1, n)
	}
}

func TestDoAfterCloseAll(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))
	require.NoError(t, p.OpenAll())
	p.CloseAll()

	err := p.Do(func() error { return errors.New("must not run") })
	assert.ErrorIs(t, err, ErrStopped)
	for _, s := range p.Statuses() {
		assert.True(t, s.Closed)
	}
}

func TestImageMovie(t *testing.T) {
	img := &config.MovieCfg{
		MovieCfgStub: config.MovieCfgStub{Name: "still", Type: "image"},
		Cfg:          &config.ImgSourceCfg{Path: config.CfgPath(writePNG(t)), Codec: "Hap1", FrameRate: 100},
	}
	p, _ := newTestPlayer(t, img, synthetic("bars", 1, "Hap1", nil))
	require.NoError(t, p.OpenAll())

	src, ok := p.ImageSource("still")
	require.True(t, ok)
	assert.Equal(t, 8, src.GetImage().Bounds().Dx())
	require.Eventually(t, hasTexture(p, "still"), 5*time.Second, time.Millisecond)

	_, ok = p.ImageSource("bars")
	assert.False(t, ok)
}

func TestShutdownAndFullscreen(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))
	assert.False(t, p.ShutdownRequested())
	p.RequestShutdown()
	assert.True(t, p.ShutdownRequested())

	p.ToggleFullscreen()
	toggled := 0
	p.fullscreen = func() { toggled++ }
	p.ToggleFullscreen()
	assert.Equal(t, 1, toggled)
}

func TestWatchWithoutWatchedMovies(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))
	assert.NoError(t, p.Watch())
	assert.Nil(t, p.watcher)
}

func TestBytesOpenerRejectsGarbage(t *testing.T) {
	_, err := BytesOpener(30, nil)([]byte("definitely not a movie"), "garbage.mov")
	assert.Error(t, err)

	dev := renderingtest.NewDevice()
	_, err = movie.OpenBytes([]byte("nope"), "x.mov", movie.Options{
		Device:      dev,
		Shaders:     shaders.NewLibrary(&nopCompiler{}, "", nil),
		BytesOpener: BytesOpener(30, nil),
	})
	assert.ErrorIs(t, err, movie.ErrOpen)
}

func TestEvents(t *testing.T) {
	p, _ := newTestPlayer(t, synthetic("bars", 0, "Hap1", nil))
	events := make(chan api.MovieEvent, 4)
	listener := func(data any) {
		events <- data.(api.MovieEvent)
	}
	p.AddEventListener(api.EventMovieOpened, listener)
	p.AddEventListener(api.EventMovieToggled, listener)

	require.NoError(t, p.OpenAll())
	select {
	case ev := <-events:
		assert.Equal(t, api.MovieEvent{Event: api.EventMovieOpened, Movie: "bars"}, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("no open event")
	}

	require.NoError(t, p.ToggleMovie(0))
	select {
	case ev := <-events:
		assert.Equal(t, api.MovieEvent{Event: api.EventMovieToggled, Movie: "bars", Hidden: true}, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("no toggle event")
	}
}
