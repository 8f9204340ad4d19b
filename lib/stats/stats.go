package stats

import (
	"sync"
	"time"

	"github.com/fosdem/happlay/lib/rendering"
)

// Stats describes the host render loop as a whole. The loop calls Update
// once per displayed frame; the api reads snapshots.
type Stats struct {
	TextureUpload      uint64  `json:"texture_upload"`
	TextureUploadAvgMb float64 `json:"texture_upload_avg_mb"`
	Uptime             float64 `json:"uptime"`
	FPS                uint64  `json:"fps"`
	WsClients          int     `json:"ws_clients"`

	frameCounter uint64
	frameTimer   time.Time
	start        time.Time
	mu           sync.Mutex
}

func New() *Stats {
	s := &Stats{}
	s.start = time.Now()
	s.frameTimer = s.start
	return s
}

func (s *Stats) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameCounter++
	if time.Since(s.frameTimer) > 1*time.Second {
		s.FPS = s.frameCounter
		s.frameCounter = 0
		s.frameTimer = time.Now()
	}

	s.Uptime = float64(time.Since(s.start).Nanoseconds()) / 1e9
	s.TextureUpload = rendering.TextureUploadBytes()
	if s.Uptime > 0 {
		s.TextureUploadAvgMb = float64(s.TextureUpload) / (s.Uptime * 1024 * 1024)
	}
}

func (s *Stats) SetWsClients(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WsClients = n
}

// Snapshot returns a copy that is safe to serialise from another goroutine.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		TextureUpload:      s.TextureUpload,
		TextureUploadAvgMb: s.TextureUploadAvgMb,
		Uptime:             s.Uptime,
		FPS:                s.FPS,
		WsClients:          s.WsClients,
	}
}
