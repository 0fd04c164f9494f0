// File: logging/sink.go
// Package logging
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/momentics/hioload-tcp/api"
)

const (
	timeLayout = "2006-01-02 15:04:05"
	dayLayout  = "2006-01-02"

	// DefaultDrainTimeout bounds how long Close waits for queued lines.
	DefaultDrainTimeout = time.Second
	// DefaultQueueSize is the capacity of the line queue.
	DefaultQueueSize = 1024
)

// SinkOption configures a FileSink.
type SinkOption func(*FileSink)

// WithClock replaces time.Now, mainly for rotation tests.
func WithClock(now func() time.Time) SinkOption {
	return func(f *FileSink) {
		if now != nil {
			f.now = now
		}
	}
}

// WithDrainTimeout sets the bounded wait used by Close.
func WithDrainTimeout(d time.Duration) SinkOption {
	return func(f *FileSink) {
		if d > 0 {
			f.drainTimeout = d
		}
	}
}

// WithQueueSize sets the line queue capacity.
func WithQueueSize(n int) SinkOption {
	return func(f *FileSink) {
		if n > 0 {
			f.queueSize = n
		}
	}
}

type entry struct {
	at   time.Time
	line string
}

// FileSink formats log lines on the caller's goroutine and writes them to
// <dir>/<YYYY-MM-DD>.log from a single background writer. An empty dir
// disables the file and keeps only subscriber delivery.
type FileSink struct {
	dir          string
	now          func() time.Time
	drainTimeout time.Duration
	queueSize    int

	mu     sync.RWMutex // guards closed against sends on queue
	closed bool
	queue  chan entry
	done   chan struct{}

	subMu   sync.Mutex
	subs    map[uint64]func(string)
	nextSub uint64

	// writer goroutine only
	file *os.File
	day  string
}

var (
	_ api.Logger     = (*FileSink)(nil)
	_ api.LineSource = (*FileSink)(nil)
)

// NewFileSink creates dir if needed and starts the writer.
func NewFileSink(dir string, opts ...SinkOption) (*FileSink, error) {
	f := &FileSink{
		dir:          dir,
		now:          time.Now,
		drainTimeout: DefaultDrainTimeout,
		queueSize:    DefaultQueueSize,
		subs:         make(map[uint64]func(string)),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("log dir %s: %w", dir, err)
		}
	}
	f.queue = make(chan entry, f.queueSize)
	go f.run()
	return f, nil
}

// Info queues an INFO line.
func (f *FileSink) Info(msg string) {
	f.enqueue("INFO", msg, nil)
}

// Error queues an ERROR line, appending err when non-nil.
func (f *FileSink) Error(msg string, err error) {
	f.enqueue("ERROR", msg, err)
}

func (f *FileSink) enqueue(level, msg string, err error) {
	at := f.now()
	line := fmt.Sprintf("[%s] [%s] %s", at.Format(timeLayout), level, msg)
	if err != nil {
		line += " | " + err.Error()
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	f.queue <- entry{at: at, line: line}
}

// Subscribe registers fn for every subsequent line. fn runs on the writer
// goroutine and must not block. It must not log through this sink either:
// with a full queue the writer would wait on itself.
func (f *FileSink) Subscribe(fn func(line string)) (cancel func()) {
	f.subMu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.subMu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.subMu.Lock()
			delete(f.subs, id)
			f.subMu.Unlock()
		})
	}
}

// Close stops intake, waits up to the drain timeout for queued lines and
// closes the file. Later calls return nil.
func (f *FileSink) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()

	select {
	case <-f.done:
		return nil
	case <-time.After(f.drainTimeout):
		return fmt.Errorf("log sink: drain timed out after %s", f.drainTimeout)
	}
}

func (f *FileSink) run() {
	defer close(f.done)
	defer f.closeFile()
	for e := range f.queue {
		f.publish(e.line)
		f.write(e)
	}
}

func (f *FileSink) publish(line string) {
	f.subMu.Lock()
	fns := make([]func(string), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subMu.Unlock()
	for _, fn := range fns {
		fn(line)
	}
}

func (f *FileSink) write(e entry) {
	if f.dir == "" {
		return
	}
	day := e.at.Format(dayLayout)
	if f.file == nil || day != f.day {
		f.closeFile()
		path := filepath.Join(f.dir, day+".log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("[logging] open %s: %v", path, err)
			return
		}
		f.file, f.day = file, day
	}
	if _, err := f.file.WriteString(e.line + "\n"); err != nil {
		log.Printf("[logging] write %s: %v", f.file.Name(), err)
	}
}

func (f *FileSink) closeFile() {
	if f.file == nil {
		return
	}
	if err := f.file.Close(); err != nil {
		log.Printf("[logging] close %s: %v", f.file.Name(), err)
	}
	f.file = nil
}
