package encdec

import (
	"errors"
	"sync"
	"sync/atomic"
)

var ErrBufferReleased = errors.New("buffer already released")

// BufferAllocator hands out pixel buffers of at least the requested size.
type BufferAllocator interface {
	NewBuffer(size int) PixelBuffer
}

// DumbBufferAllocator allocates a fresh slice for every buffer and lets the
// garbage collector take it back on release.
type DumbBufferAllocator struct{}

func (d *DumbBufferAllocator) NewBuffer(size int) PixelBuffer {
	return NewBorrowedBytes(make([]byte, size), nil)
}

// BorrowedBytes lends out a byte slice owned by someone else. onRelease is
// called once, on the first Release.
type BorrowedBytes struct {
	data      []byte
	onRelease func([]byte)
	locks     atomic.Int32
	released  atomic.Bool
}

func NewBorrowedBytes(data []byte, onRelease func([]byte)) *BorrowedBytes {
	return &BorrowedBytes{data: data, onRelease: onRelease}
}

func (b *BorrowedBytes) LockForRead() error {
	if b.released.Load() {
		return ErrBufferReleased
	}
	b.locks.Add(1)
	return nil
}

func (b *BorrowedBytes) Bytes() []byte {
	if b.released.Load() {
		return nil
	}
	return b.data
}

func (b *BorrowedBytes) Unlock() {
	if b.locks.Add(-1) < 0 {
		panic("Unlock called on buffer that is not locked")
	}
}

func (b *BorrowedBytes) Release() {
	if !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.onRelease != nil {
		b.onRelease(b.data)
	}
}

// Locked reports whether a reader currently holds the buffer.
func (b *BorrowedBytes) Locked() bool {
	return b.locks.Load() > 0
}

func (b *BorrowedBytes) Released() bool {
	return b.released.Load()
}

// BufferPool recycles fixed-size buffers between a decoder and the uploader
// so that steady-state playback does not allocate.
type BufferPool struct {
	size int

	mu          sync.Mutex
	bin         [][]byte
	outstanding int
}

func NewBufferPool(size int, prealloc int) *BufferPool {
	p := &BufferPool{size: size}
	for range prealloc {
		p.bin = append(p.bin, make([]byte, size))
	}
	return p
}

// NewBuffer takes a buffer out of the pool. Requests larger than the pool's
// buffer size get a one-off allocation that is not recycled.
func (p *BufferPool) NewBuffer(size int) PixelBuffer {
	if size > p.size {
		return NewBorrowedBytes(make([]byte, size), nil)
	}

	p.mu.Lock()
	var data []byte
	if n := len(p.bin); n > 0 {
		data = p.bin[n-1]
		p.bin = p.bin[:n-1]
	} else {
		data = make([]byte, p.size)
	}
	p.outstanding++
	p.mu.Unlock()

	return NewBorrowedBytes(data[:size], p.recycle)
}

func (p *BufferPool) recycle(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outstanding--
	p.bin = append(p.bin, data[:cap(data)])
}

// Outstanding is the number of buffers handed out and not yet released.
func (p *BufferPool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

func (p *BufferPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bin)
}
