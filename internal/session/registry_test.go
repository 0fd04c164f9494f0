package session_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-tcp/internal/session"
)

func TestRegistryAdmissionCap(t *testing.T) {
	reg := smallRegistry(2)
	log := &memLogger{}
	sessions := make([]*session.Session, 3)
	results := make([]bool, 3)
	var wg sync.WaitGroup
	for i := range sessions {
		sessions[i] = session.New(newRecorder(), log, session.Options{})
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reg.Register(sessions[i])
		}(i)
	}
	wg.Wait()

	admitted := 0
	var rejected *session.Session
	for i, ok := range results {
		if ok {
			admitted++
		} else {
			rejected = sessions[i]
		}
	}
	if admitted != 2 || reg.Current() != 2 {
		t.Fatalf("admitted=%d current=%d, want 2", admitted, reg.Current())
	}
	if reg.Rejected() != 1 {
		t.Fatalf("Rejected = %d, want 1", reg.Rejected())
	}
	if rejected.ID() != 0 {
		t.Fatalf("rejected session got ID %d", rejected.ID())
	}

	for i, ok := range results {
		if ok {
			reg.Unregister(sessions[i])
			break
		}
	}
	if reg.Current() != 1 {
		t.Fatalf("Current = %d after unregister, want 1", reg.Current())
	}
	if !reg.Register(session.New(newRecorder(), log, session.Options{})) {
		t.Fatal("register after unregister must succeed")
	}
}

func TestRegistryIDsAreSequentialAndNeverReused(t *testing.T) {
	reg := smallRegistry(10)
	log := &memLogger{}
	a := session.New(newRecorder(), log, session.Options{})
	b := session.New(newRecorder(), log, session.Options{})
	reg.Register(a)
	reg.Register(b)
	if a.ID() != 1 || b.ID() != 2 {
		t.Fatalf("IDs = %d,%d, want 1,2", a.ID(), b.ID())
	}
	reg.Unregister(a)
	c := session.New(newRecorder(), log, session.Options{})
	reg.Register(c)
	if c.ID() != 3 {
		t.Fatalf("ID = %d, want 3", c.ID())
	}
	if got, ok := reg.Get(b.ID()); !ok || got != b {
		t.Fatal("Get did not return registered session")
	}
	if _, ok := reg.Get(a.ID()); ok {
		t.Fatal("unregistered session still present")
	}
}

func TestRegistryLendsAndReturnsBuffers(t *testing.T) {
	reg := smallRegistry(10)
	log := &memLogger{}
	before := reg.RecvPoolStats().Idle
	s := session.New(newRecorder(), log, session.Options{})
	reg.Register(s)
	if got := reg.RecvPoolStats().Idle; got != before-1 {
		t.Fatalf("recv idle = %d, want %d", got, before-1)
	}
	reg.Unregister(s)
	reg.Unregister(s)
	if got := reg.RecvPoolStats().Idle; got != before {
		t.Fatalf("recv idle = %d after unregister, want %d", got, before)
	}
	if got := reg.SendPoolStats().Idle; got != before {
		t.Fatalf("send idle = %d after unregister, want %d", got, before)
	}
	if reg.Current() != 0 {
		t.Fatalf("double unregister changed count: %d", reg.Current())
	}
}

func TestRegistryRangeAndDrain(t *testing.T) {
	reg := smallRegistry(10)
	log := &memLogger{}
	var all []*session.Session
	for i := 0; i < 5; i++ {
		s := session.New(newRecorder(), log, session.Options{})
		reg.Register(s)
		all = append(all, s)
	}
	seen := 0
	reg.Range(func(*session.Session) bool {
		seen++
		return true
	})
	if seen != 5 {
		t.Fatalf("Range visited %d, want 5", seen)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := reg.Drain(ctx); err == nil {
		t.Fatal("Drain must time out while sessions remain")
	}

	for _, s := range all {
		reg.Unregister(s)
	}
	if err := reg.Drain(context.Background()); err != nil {
		t.Fatalf("Drain: %v", err)
	}
}

func TestRegistryClampsShardCount(t *testing.T) {
	for _, shards := range []int{session.MaxShards + 1, math.MaxInt32, math.MaxInt} {
		reg := session.NewRegistry(session.RegistryConfig{
			MaxSessions:    4,
			Shards:         shards,
			RecvBufferSize: 64,
			SendBufferSize: 64,
		})
		s := session.New(newRecorder(), &memLogger{}, session.Options{})
		if !reg.Register(s) {
			t.Fatalf("shards=%d: register failed", shards)
		}
		if got, ok := reg.Get(s.ID()); !ok || got != s {
			t.Fatalf("shards=%d: session not found", shards)
		}
		reg.Unregister(s)
		if reg.Current() != 0 {
			t.Fatalf("shards=%d: current = %d", shards, reg.Current())
		}
	}
}
