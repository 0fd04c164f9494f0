// File: internal/session/registry.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe session registry with admission control and pooled
// per-session buffers.

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-tcp/core/buffer"
	"github.com/momentics/hioload-tcp/pool"
)

// MaxShards bounds RegistryConfig.Shards.
const MaxShards = 1 << 16

// RegistryConfig sizes the registry and its buffer pools.
type RegistryConfig struct {
	MaxSessions    int
	Shards         int
	RecvBufferSize int
	SendBufferSize int
	PoolInitial    int
	PoolMax        int
}

// DefaultRegistryConfig mirrors the server defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxSessions:    5000,
		Shards:         16,
		RecvBufferSize: buffer.DefaultRingSize,
		SendBufferSize: buffer.DefaultSendSize,
		PoolInitial:    500,
		PoolMax:        5000,
	}
}

// counters are written by every session goroutine; keep them on separate
// cache lines.
type counters struct {
	recv     atomic.Uint64
	_        cpu.CacheLinePad
	sent     atomic.Uint64
	_        cpu.CacheLinePad
	rejected atomic.Uint64
	_        cpu.CacheLinePad
}

// Registry is the authoritative map of live sessions.
type Registry struct {
	shards []*registryShard
	mask   uint64
	max    int

	count  atomic.Int64
	nextID atomic.Uint64
	stats  counters

	recvPool *pool.BoundedPool[*buffer.RingBuffer]
	sendPool *pool.BoundedPool[*buffer.SendBuffer]
}

type registryShard struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
}

var _ observer = (*Registry)(nil)

// NewRegistry builds a registry with power-of-two shards.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Shards <= 0 {
		cfg.Shards = 16
	}
	if cfg.Shards > MaxShards {
		cfg.Shards = MaxShards
	}
	if cfg.RecvBufferSize <= 0 {
		cfg.RecvBufferSize = buffer.DefaultRingSize
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = buffer.DefaultSendSize
	}
	m := nextPowerOfTwo(uint32(cfg.Shards))
	shards := make([]*registryShard, m)
	for i := range shards {
		shards[i] = &registryShard{sessions: make(map[uint64]*Session)}
	}
	recvSize, sendSize := cfg.RecvBufferSize, cfg.SendBufferSize
	return &Registry{
		shards: shards,
		mask:   uint64(m - 1),
		max:    cfg.MaxSessions,
		recvPool: pool.NewBoundedPool(func() *buffer.RingBuffer {
			return buffer.NewRingBuffer(recvSize)
		}, cfg.PoolInitial, cfg.PoolMax),
		sendPool: pool.NewBoundedPool(func() *buffer.SendBuffer {
			return buffer.NewSendBuffer(sendSize)
		}, cfg.PoolInitial, cfg.PoolMax),
	}
}

func (r *Registry) shard(id uint64) *registryShard {
	return r.shards[id&r.mask]
}

// Register admits s if the registry is below capacity: it assigns the next
// ID, lends a receive ring and a send buffer and inserts s. It returns false
// without side effects on s when the registry is full.
func (r *Registry) Register(s *Session) bool {
	if s == nil {
		return false
	}
	for {
		c := r.count.Load()
		if c >= int64(r.max) {
			r.stats.rejected.Add(1)
			return false
		}
		if r.count.CompareAndSwap(c, c+1) {
			break
		}
	}
	id := r.nextID.Add(1)
	s.attach(id, r.recvPool.Get(), r.sendPool.Get(), r)

	sh := r.shard(id)
	sh.mu.Lock()
	sh.sessions[id] = s
	sh.mu.Unlock()
	return true
}

// Unregister removes s and returns its buffers to the pools. Calls for a
// session that is not registered are ignored.
func (r *Registry) Unregister(s *Session) {
	if s == nil {
		return
	}
	sh := r.shard(s.id)
	sh.mu.Lock()
	cur, ok := sh.sessions[s.id]
	if !ok || cur != s {
		sh.mu.Unlock()
		return
	}
	delete(sh.sessions, s.id)
	sh.mu.Unlock()

	recv, send := s.detach()
	if recv != nil {
		r.recvPool.Put(recv)
	}
	if send != nil {
		r.sendPool.Put(send)
	}
	r.count.Add(-1)
}

// Get fetches a live session by ID.
func (r *Registry) Get(id uint64) (*Session, bool) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	s, ok := sh.sessions[id]
	return s, ok
}

// Range applies fn to all sessions until fn returns false.
func (r *Registry) Range(fn func(*Session) bool) {
	for _, sh := range r.shards {
		sh.mu.RLock()
		list := make([]*Session, 0, len(sh.sessions))
		for _, s := range sh.sessions {
			list = append(list, s)
		}
		sh.mu.RUnlock()
		for _, s := range list {
			if !fn(s) {
				return
			}
		}
	}
}

// DisconnectAll closes every live session's transport. Sessions leave the
// registry as their receive loops observe the close.
func (r *Registry) DisconnectAll() {
	r.Range(func(s *Session) bool {
		s.Disconnect()
		return true
	})
}

// Drain blocks until no session is registered or ctx is done.
func (r *Registry) Drain(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for r.Current() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Current returns the number of registered sessions.
func (r *Registry) Current() int { return int(r.count.Load()) }

// Max returns the configured capacity.
func (r *Registry) Max() int { return r.max }

// TotalRecvFrames returns the number of frames handled by behaviors.
func (r *Registry) TotalRecvFrames() uint64 { return r.stats.recv.Load() }

// TotalSendFrames returns the number of successful sends.
func (r *Registry) TotalSendFrames() uint64 { return r.stats.sent.Load() }

// Rejected returns the number of admissions refused at capacity.
func (r *Registry) Rejected() uint64 { return r.stats.rejected.Load() }

// RecvPoolStats reports the receive ring pool.
func (r *Registry) RecvPoolStats() pool.Stats { return r.recvPool.Stats() }

// SendPoolStats reports the send buffer pool.
func (r *Registry) SendPoolStats() pool.Stats { return r.sendPool.Stats() }

func (r *Registry) frameReceived() { r.stats.recv.Add(1) }

func (r *Registry) frameSent() { r.stats.sent.Add(1) }

func (r *Registry) sessionClosed(s *Session) { r.Unregister(s) }

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
