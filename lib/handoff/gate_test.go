package handoff

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fosdem/happlay/lib/rendering"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gates(t *testing.T) map[Mode]Gate {
	out := map[Mode]Gate{}
	for _, m := range []Mode{ModeAtomic, ModeLocked} {
		g, err := New(m)
		require.NoError(t, err)
		out[m] = g
	}
	return out
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAtomic, m)

	m, err = ParseMode("locked")
	require.NoError(t, err)
	assert.Equal(t, ModeLocked, m)

	_, err = ParseMode("spinlock")
	assert.Error(t, err)
	_, err = New("spinlock")
	assert.Error(t, err)
}

func TestGateKeepsTextureOnError(t *testing.T) {
	for mode, g := range gates(t) {
		t.Run(string(mode), func(t *testing.T) {
			assert.Nil(t, g.Current())

			first := &rendering.Texture{ID: 1, BackingWidth: 16, BackingHeight: 16, CleanWidth: 16, CleanHeight: 16}
			require.NoError(t, g.Update(func(cur *rendering.Texture) (*rendering.Texture, error) {
				assert.Nil(t, cur)
				return first, nil
			}))

			boom := errors.New("boom")
			err := g.Update(func(cur *rendering.Texture) (*rendering.Texture, error) {
				assert.Same(t, first, cur)
				return &rendering.Texture{ID: 2}, boom
			})
			assert.ErrorIs(t, err, boom)
			assert.Same(t, first, g.Current())

			var seen *rendering.Texture
			g.View(func(cur *rendering.Texture) { seen = cur })
			assert.Same(t, first, seen)

			require.NoError(t, g.Update(func(*rendering.Texture) (*rendering.Texture, error) { return nil, nil }))
			assert.Nil(t, g.Current())
		})
	}
}

func TestLockedGateBlocksViewDuringUpdate(t *testing.T) {
	g := &LockedGate{}
	inUpdate := make(chan struct{})
	finish := make(chan struct{})
	go func() {
		_ = g.Update(func(*rendering.Texture) (*rendering.Texture, error) {
			close(inUpdate)
			<-finish
			return &rendering.Texture{ID: 7}, nil
		})
	}()
	<-inUpdate

	var viewed atomic.Bool
	done := make(chan struct{})
	go func() {
		g.View(func(*rendering.Texture) { viewed.Store(true) })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, viewed.Load())
	close(finish)
	<-done
	assert.True(t, viewed.Load())
}

func TestAtomicGateViewDoesNotWaitForUpdate(t *testing.T) {
	g := &AtomicGate{}
	inUpdate := make(chan struct{})
	finish := make(chan struct{})
	updated := make(chan struct{})
	go func() {
		_ = g.Update(func(*rendering.Texture) (*rendering.Texture, error) {
			close(inUpdate)
			<-finish
			return &rendering.Texture{ID: 7}, nil
		})
		close(updated)
	}()
	<-inUpdate

	var seen *rendering.Texture
	g.View(func(cur *rendering.Texture) { seen = cur })
	assert.Nil(t, seen)

	close(finish)
	<-updated
	assert.EqualValues(t, 7, g.Current().ID)
}

func TestGateFlushWaitsForUpdate(t *testing.T) {
	for mode, g := range gates(t) {
		t.Run(string(mode), func(t *testing.T) {
			inUpdate := make(chan struct{})
			var finished atomic.Bool
			go func() {
				_ = g.Update(func(*rendering.Texture) (*rendering.Texture, error) {
					close(inUpdate)
					time.Sleep(20 * time.Millisecond)
					finished.Store(true)
					return nil, nil
				})
			}()
			<-inUpdate
			g.Flush()
			assert.True(t, finished.Load())
		})
	}
}

// The consumer must never see a texture whose content is larger than its
// storage, however the producer's sizes change.
func TestGateNoTornReads(t *testing.T) {
	for mode, g := range gates(t) {
		t.Run(string(mode), func(t *testing.T) {
			const frames = 5000
			var wg sync.WaitGroup
			wg.Add(2)

			go func() {
				defer wg.Done()
				for i := range frames {
					size := 4 + (i%64)*4
					_ = g.Update(func(*rendering.Texture) (*rendering.Texture, error) {
						backing := rendering.NextPowerOfTwo(size)
						return &rendering.Texture{
							ID:            uint32(i + 1),
							BackingWidth:  backing,
							BackingHeight: backing,
							CleanWidth:    size - 1,
							CleanHeight:   size - 2,
						}, nil
					})
				}
			}()

			var torn atomic.Int32
			go func() {
				defer wg.Done()
				for range frames {
					g.View(func(cur *rendering.Texture) {
						if cur == nil {
							return
						}
						if cur.CleanWidth > cur.BackingWidth || cur.CleanHeight > cur.BackingHeight {
							torn.Add(1)
						}
					})
				}
			}()

			wg.Wait()
			assert.Zero(t, torn.Load())
			assert.EqualValues(t, frames, g.Current().ID)
		})
	}
}
