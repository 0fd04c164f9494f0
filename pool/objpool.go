// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-tcp/api"
)

// BoundedPool is a generic free-list with a maximum retained size.
// Get never blocks: it reuses an idle item or constructs a new one.
// Double Put or use after Put is the caller's problem; the pool does not
// track identity.
type BoundedPool[T api.Clearable] struct {
	mu      sync.Mutex
	free    *queue.Queue
	max     int
	newItem func() T

	allocated atomic.Uint64
	reused    atomic.Uint64
	discarded atomic.Uint64
}

// Stats reports pool accounting.
type Stats struct {
	Idle      int
	Max       int
	Allocated uint64
	Reused    uint64
	Discarded uint64
}

var _ api.ObjectPool[api.Clearable] = (*BoundedPool[api.Clearable])(nil)

// NewBoundedPool creates a pool pre-filled with initial items, retaining at
// most max idle items.
func NewBoundedPool[T api.Clearable](newItem func() T, initial, max int) *BoundedPool[T] {
	if max < 0 {
		max = 0
	}
	if initial > max {
		initial = max
	}
	p := &BoundedPool[T]{
		free:    queue.New(),
		max:     max,
		newItem: newItem,
	}
	for i := 0; i < initial; i++ {
		p.free.Add(newItem())
	}
	p.allocated.Add(uint64(initial))
	return p
}

// Get removes an idle item or constructs a new one.
func (p *BoundedPool[T]) Get() T {
	p.mu.Lock()
	if p.free.Length() > 0 {
		item := p.free.Remove().(T)
		p.mu.Unlock()
		p.reused.Add(1)
		return item
	}
	p.mu.Unlock()
	p.allocated.Add(1)
	return p.newItem()
}

// Put clears item and keeps it if the free-list is below its cap.
func (p *BoundedPool[T]) Put(item T) {
	item.Clear()
	p.mu.Lock()
	if p.free.Length() < p.max {
		p.free.Add(item)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.discarded.Add(1)
}

// Count returns the number of idle items.
func (p *BoundedPool[T]) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free.Length()
}

// Stats returns a snapshot of the pool counters.
func (p *BoundedPool[T]) Stats() Stats {
	return Stats{
		Idle:      p.Count(),
		Max:       p.max,
		Allocated: p.allocated.Load(),
		Reused:    p.reused.Load(),
		Discarded: p.discarded.Load(),
	}
}
