// Package handoff passes the current texture of a movie from the decode
// callback to the render thread.
package handoff

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fosdem/happlay/lib/rendering"
)

// UpdateFunc builds the next texture from the current one. Returning an
// error keeps the current texture.
type UpdateFunc func(cur *rendering.Texture) (*rendering.Texture, error)

// Gate guards the single current texture of one movie. There is exactly one
// producer calling Update and one consumer calling View.
type Gate interface {
	Update(fn UpdateFunc) error
	View(fn func(cur *rendering.Texture))
	Current() *rendering.Texture
	// Flush waits for an in-flight Update to finish.
	Flush()
}

type Mode string

const (
	ModeAtomic Mode = "atomic"
	ModeLocked Mode = "locked"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAtomic, "":
		return ModeAtomic, nil
	case ModeLocked:
		return ModeLocked, nil
	default:
		return "", fmt.Errorf("unknown gate mode %q (want %q or %q)", s, ModeAtomic, ModeLocked)
	}
}

func New(mode Mode) (Gate, error) {
	switch mode {
	case ModeAtomic, "":
		return &AtomicGate{}, nil
	case ModeLocked:
		return &LockedGate{}, nil
	default:
		return nil, fmt.Errorf("unknown gate mode %q", mode)
	}
}

// LockedGate holds one mutex across both the upload and the draw, so a draw
// waits for an in-flight upload and the other way around.
type LockedGate struct {
	mu  sync.Mutex
	cur *rendering.Texture
}

func (g *LockedGate) Update(fn UpdateFunc) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	next, err := fn(g.cur)
	if err != nil {
		return err
	}
	g.cur = next
	return nil
}

func (g *LockedGate) View(fn func(cur *rendering.Texture)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.cur)
}

func (g *LockedGate) Current() *rendering.Texture {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cur
}

func (g *LockedGate) Flush() {
	g.mu.Lock()
	defer g.mu.Unlock()
}

// AtomicGate publishes fully built textures with a pointer swap. Readers
// take a snapshot and never wait for uploads.
type AtomicGate struct {
	writer sync.Mutex
	cur    atomic.Pointer[rendering.Texture]
}

func (g *AtomicGate) Update(fn UpdateFunc) error {
	g.writer.Lock()
	defer g.writer.Unlock()
	next, err := fn(g.cur.Load())
	if err != nil {
		return err
	}
	g.cur.Store(next)
	return nil
}

func (g *AtomicGate) View(fn func(cur *rendering.Texture)) {
	fn(g.cur.Load())
}

func (g *AtomicGate) Current() *rendering.Texture {
	return g.cur.Load()
}

func (g *AtomicGate) Flush() {
	g.writer.Lock()
	defer g.writer.Unlock()
}
