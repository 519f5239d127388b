// Package render owns the per-job rendering state: the double-buffered layer images,
// the single in-flight render task and the slicing cursor.
package render

import (
	"image"
	"sync"
)

const noSlot = -1

// LayerBuffer is a pair of layer images of which at most one is current.
// The current slot may be copied by readers outside the pipeline while the other
// slot is written by the render task. Present is the only way to change the current slot.
type LayerBuffer struct {
	mu       sync.Mutex
	slots    [2]*image.Gray
	current  int
	released bool
}

// NewLayerBuffer allocates two width x height slots. No slot is current yet.
func NewLayerBuffer(width, height int) *LayerBuffer {
	r := image.Rect(0, 0, width, height)
	return &LayerBuffer{
		slots:   [2]*image.Gray{image.NewGray(r), image.NewGray(r)},
		current: noSlot,
	}
}

// back returns the slot a render task may write: never the current one.
func (b *LayerBuffer) back() (int, *image.Gray) {
	b.mu.Lock()
	defer b.mu.Unlock()
	slot := 0
	if b.current == 0 {
		slot = 1
	}
	return slot, b.slots[slot]
}

// Present makes slot current.
func (b *LayerBuffer) Present(slot int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = slot
}

// Current returns the index of the current slot, or -1.
func (b *LayerBuffer) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Snapshot returns a copy of the current slot, or nil when nothing has been presented.
func (b *LayerBuffer) Snapshot() *image.Gray {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released || b.current == noSlot {
		return nil
	}
	src := b.slots[b.current]
	out := image.NewGray(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// Release drops both slots. Later snapshots return nil.
func (b *LayerBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
	b.current = noSlot
	b.slots = [2]*image.Gray{}
}
