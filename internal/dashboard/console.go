// File: internal/dashboard/console.go
// Package dashboard
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Text console standing in for the operator dashboard: it polls the server
// status, mirrors the log stream and accepts start/stop commands.

package dashboard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"github.com/momentics/hioload-tcp/api"
)

// Controller is the part of the server the console drives.
type Controller interface {
	Start(port int) error
	Stop() error
	Status() api.Status
}

// Option customizes a Console.
type Option func(*Console)

// WithInterval sets the status polling period.
func WithInterval(d time.Duration) Option {
	return func(c *Console) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLineSource mirrors log lines to the console output.
func WithLineSource(src api.LineSource) Option {
	return func(c *Console) { c.lines = src }
}

// WithControl enables the stats command.
func WithControl(ctrl api.Control) Option {
	return func(c *Console) { c.control = ctrl }
}

// Console reads commands from in and writes to out.
type Console struct {
	srv      Controller
	port     int
	interval time.Duration
	lines    api.LineSource
	control  api.Control
	in       io.Reader

	outMu  sync.Mutex
	out    io.Writer
	closed bool
}

// New builds a console that starts srv on port.
func New(srv Controller, port int, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		srv:      srv,
		port:     port,
		interval: time.Second,
		in:       in,
		out:      out,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run serves commands until quit, end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.lines != nil {
		unsubscribe := c.lines.Subscribe(func(line string) { c.println(line) })
		defer unsubscribe()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.poll(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
		c.outMu.Lock()
		c.closed = true
		c.outMu.Unlock()
	}()

	// the reader goroutine outlives Run if in never returns
	cmds := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case cmds <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	c.println("commands: start, stop, status, stats, quit")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-cmds:
			if !c.handle(strings.TrimSpace(line)) {
				return nil
			}
		}
	}
}

// handle executes one command and reports whether to keep running.
func (c *Console) handle(cmd string) bool {
	switch strings.ToLower(cmd) {
	case "":
	case "start":
		if err := c.srv.Start(c.port); err != nil {
			c.println(fmt.Sprintf("ALERT: start failed: %v", err))
			return true
		}
		c.println(formatStatus(c.srv.Status()))
	case "stop":
		if err := c.srv.Stop(); err != nil {
			c.println(fmt.Sprintf("ALERT: stop failed: %v", err))
			return true
		}
		c.println(formatStatus(c.srv.Status()))
	case "status":
		c.printJSON(c.srv.Status())
	case "stats":
		if c.control == nil {
			c.println("stats unavailable")
			return true
		}
		c.printJSON(c.control.Stats())
	case "quit", "exit":
		return false
	default:
		c.println(fmt.Sprintf("unknown command %q", cmd))
	}
	return true
}

// poll prints the status whenever it differs from the last one shown.
func (c *Console) poll(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	last := c.srv.Status()
	c.println(formatStatus(last))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if st := c.srv.Status(); st != last {
				last = st
				c.println(formatStatus(st))
			}
		}
	}
}

func formatStatus(st api.Status) string {
	state := "stopped"
	if st.IsRunning {
		state = "running"
	}
	return fmt.Sprintf("[%s] sessions %d/%d | recv %d | sent %d | rejected %d",
		state, st.CurrentCount, st.MaxSessions, st.TotalRecvFrames, st.TotalSendFrames, st.Rejected)
}

func (c *Console) printJSON(v any) {
	b, err := sonnet.Marshal(v)
	if err != nil {
		c.println(fmt.Sprintf("ALERT: encode: %v", err))
		return
	}
	c.println(string(b))
}

func (c *Console) println(s string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.closed {
		return
	}
	fmt.Fprintln(c.out, s)
}
