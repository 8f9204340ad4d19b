package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestPlaybackStatsConvergesToCallbackRate(t *testing.T) {
	for _, dt := range []time.Duration{
		time.Second / 24,
		time.Second / 30,
		time.Second / 60,
		100 * time.Millisecond,
	} {
		clock := newFakeClock()
		p := NewPlaybackStats(clock, 250*time.Millisecond)

		samples := 0
		last := p.Framerate()
		for range 200 {
			clock.Advance(dt)
			p.Tick()
			if fps := p.Framerate(); fps != last {
				samples++
				last = fps
			}
			if samples > 0 {
				assert.InEpsilon(t, 1/dt.Seconds(), p.Framerate(), 1e-9, "dt=%s", dt)
			}
		}
		assert.Positive(t, samples, "dt=%s", dt)
	}
}

func TestPlaybackStatsHoldsBetweenBoundaries(t *testing.T) {
	clock := newFakeClock()
	p := NewPlaybackStats(clock, time.Second)

	for range 10 {
		clock.Advance(50 * time.Millisecond)
		p.Tick()
	}
	assert.Zero(t, p.Framerate())
	assert.Equal(t, uint64(10), p.FrameCount())

	for range 11 {
		clock.Advance(50 * time.Millisecond)
		p.Tick()
	}
	assert.InDelta(t, 20.0, p.Framerate(), 1e-9)

	// a burst inside the next interval must not move the average
	for range 5 {
		clock.Advance(time.Millisecond)
		p.Tick()
	}
	assert.InDelta(t, 20.0, p.Framerate(), 1e-9)
}

func TestPlaybackStatsDefaults(t *testing.T) {
	p := NewPlaybackStats(nil, 0)
	assert.Equal(t, DefaultSampleInterval, p.interval)
	assert.IsType(t, SystemClock{}, p.clock)
}

func TestPlaybackStatsSnapshot(t *testing.T) {
	clock := newFakeClock()
	p := NewPlaybackStats(clock, 100*time.Millisecond)
	for range 4 {
		clock.Advance(40 * time.Millisecond)
		p.Tick()
	}
	snap := p.Snapshot()
	assert.Equal(t, uint64(4), snap.FrameCount)
	assert.InDelta(t, 25.0, snap.AverageFps, 1e-9)
}
