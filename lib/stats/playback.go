package stats

import (
	"sync"
	"time"
)

// DefaultSampleInterval matches the sample interval of the host render loop.
const DefaultSampleInterval = 250 * time.Millisecond

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// PlaybackStats measures the rate at which a movie's decoder delivers frames.
// Only the decode callback calls Tick; everything else reads.
type PlaybackStats struct {
	clock    Clock
	interval time.Duration

	mu              sync.Mutex
	frameCount      uint64
	lastSampleFrame uint64
	lastSampleTime  time.Time
	averageFps      float64
}

type PlaybackSnapshot struct {
	FrameCount uint64  `json:"frame_count"`
	AverageFps float64 `json:"average_fps"`
}

func NewPlaybackStats(clock Clock, interval time.Duration) *PlaybackStats {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &PlaybackStats{
		clock:          clock,
		interval:       interval,
		lastSampleTime: clock.Now(),
	}
}

// Tick records one decoded frame. The average is only recomputed once more
// than one sample interval has passed since the last sample.
func (p *PlaybackStats) Tick() {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	elapsed := now.Sub(p.lastSampleTime)
	if elapsed > p.interval {
		framesPassed := p.frameCount - p.lastSampleFrame
		p.averageFps = float64(framesPassed) / elapsed.Seconds()
		p.lastSampleTime = now
		p.lastSampleFrame = p.frameCount
	}
}

func (p *PlaybackStats) Framerate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.averageFps
}

func (p *PlaybackStats) FrameCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameCount
}

func (p *PlaybackStats) Snapshot() PlaybackSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlaybackSnapshot{FrameCount: p.frameCount, AverageFps: p.averageFps}
}
