package movie

import (
	"maps"

	"github.com/fosdem/happlay/lib/rendering"
)

type TextureStatus struct {
	ID            uint32 `json:"id"`
	BackingWidth  int    `json:"backing_width"`
	BackingHeight int    `json:"backing_height"`
	CleanWidth    int    `json:"clean_width"`
	CleanHeight   int    `json:"clean_height"`
	Format        string `json:"format"`
	Generation    uint64 `json:"generation"`
}

type Status struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Codec      string            `json:"codec"`
	Variant    string            `json:"variant"`
	Supported  bool              `json:"supported"`
	FrameCount uint64            `json:"frame_count"`
	AverageFps float64           `json:"average_fps"`
	Texture    *TextureStatus    `json:"texture"`
	Dropped    map[string]uint64 `json:"dropped"`
	Failed     string            `json:"failed,omitempty"`
	Closed     bool              `json:"closed"`
}

func textureStatus(t *rendering.Texture) *TextureStatus {
	if t == nil {
		return nil
	}
	return &TextureStatus{
		ID:            t.ID,
		BackingWidth:  t.BackingWidth,
		BackingHeight: t.BackingHeight,
		CleanWidth:    t.CleanWidth,
		CleanHeight:   t.CleanHeight,
		Format:        t.Format.String(),
		Generation:    t.Generation,
	}
}

func (m *Movie) Status() Status {
	snap := m.stats.Snapshot()

	m.dropMu.Lock()
	dropped := maps.Clone(m.drops)
	m.dropMu.Unlock()

	s := Status{
		ID:         m.id.String(),
		Name:       m.name,
		Codec:      m.codec.Raw.String(),
		Variant:    m.codec.Variant.String(),
		Supported:  m.codec.Supported(),
		FrameCount: snap.FrameCount,
		AverageFps: snap.AverageFps,
		Texture:    textureStatus(m.Texture()),
		Dropped:    dropped,
		Closed:     m.closed.Load(),
	}
	if err := m.Failed(); err != nil {
		s.Failed = err.Error()
	}
	return s
}
