// File: cmd/hioload-client/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Minimal frame client: sends N frames and prints the decoded replies.

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/core/buffer"
	"github.com/momentics/hioload-tcp/core/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9000", "server address")
	count := flag.Int("n", 5, "frames to send")
	msg := flag.String("msg", "hello", "payload prefix")
	timeout := flag.Duration("timeout", 5*time.Second, "per-reply read timeout")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("[client] dial %s: %v", *addr, err)
	}
	defer conn.Close()

	ring := buffer.NewRingBuffer(buffer.DefaultRingSize)
	parser, err := protocol.NewParser(ring)
	if err != nil {
		log.Fatalf("[client] %v", err)
	}

	start := time.Now()
	for i := 0; i < *count; i++ {
		frame, err := protocol.EncodeFrame([]byte(fmt.Sprintf("%s %d", *msg, i)))
		if err != nil {
			log.Fatalf("[client] encode: %v", err)
		}
		if _, err := conn.Write(frame); err != nil {
			log.Fatalf("[client] write: %v", err)
		}
		reply, err := readFrame(conn, ring, parser, *timeout)
		if err != nil {
			log.Fatalf("[client] frame %d: %v", i, err)
		}
		fmt.Printf("%d: %s\n", i, reply)
	}
	log.Printf("[client] %d round trips in %s", *count, time.Since(start))
}

// readFrame reads from conn into ring until parser yields one frame.
func readFrame(conn net.Conn, ring *buffer.RingBuffer, parser *protocol.Parser, timeout time.Duration) ([]byte, error) {
	for {
		payload, ok, err := parser.TryParse()
		if err != nil {
			return nil, err
		}
		if ok {
			return payload, nil
		}
		seg := ring.WriteSegment()
		if len(seg) == 0 {
			return nil, api.ErrBufferExhausted
		}
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
		n, err := conn.Read(seg)
		if n > 0 {
			if cerr := ring.CommitWrite(n); cerr != nil {
				return nil, cerr
			}
		}
		if err != nil {
			return nil, err
		}
	}
}
