package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/momentics/hioload-tcp/api"
	"github.com/momentics/hioload-tcp/core/buffer"
	"github.com/momentics/hioload-tcp/core/protocol"
)

const ringCap = 64

func payloadOf(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}

// advance moves both cursors forward by n bytes so later writes wrap.
func advance(t *testing.T, r *buffer.RingBuffer, n int) {
	t.Helper()
	if err := r.CommitWrite(n); err != nil {
		t.Fatal(err)
	}
	if err := r.CommitRead(n); err != nil {
		t.Fatal(err)
	}
}

func TestEncodeFrame(t *testing.T) {
	got, err := protocol.EncodeFrame([]byte("abcde"))
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x07, 0x00, 'a', 'b', 'c', 'd', 'e'}
	if !bytes.Equal(got, want) {
		t.Fatalf("EncodeFrame = %v, want %v", got, want)
	}
	if _, err := protocol.EncodeFrame(make([]byte, protocol.MaxPayloadLen+1)); !errors.Is(err, api.ErrFrameTooLarge) {
		t.Fatalf("oversized payload err = %v", err)
	}
}

func TestNewParserNilBuffer(t *testing.T) {
	if _, err := protocol.NewParser(nil); !errors.Is(err, api.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

// Every offset of the ring is tried, so both the header and the body cross
// the physical end of the array at some point.
func TestParserRoundTripAtEveryOffset(t *testing.T) {
	sizes := []int{0, 1, ringCap / 2, ringCap - 3}
	for offset := 0; offset < ringCap; offset++ {
		r := buffer.NewRingBuffer(ringCap)
		advance(t, r, offset)
		p, err := protocol.NewParser(r)
		if err != nil {
			t.Fatal(err)
		}
		for i, n := range sizes {
			want := payloadOf(n, byte(i*31))
			frame, _ := protocol.EncodeFrame(want)
			if _, err := r.Write(frame); err != nil {
				t.Fatalf("offset %d size %d: %v", offset, n, err)
			}
			got, ok, err := p.TryParse()
			if err != nil || !ok {
				t.Fatalf("offset %d size %d: ok=%v err=%v", offset, n, ok, err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("offset %d size %d: payload mismatch", offset, n)
			}
		}
		if _, ok, _ := p.TryParse(); ok {
			t.Fatalf("offset %d: unexpected extra frame", offset)
		}
	}
}

func TestParserDrainsQueuedFrames(t *testing.T) {
	r := buffer.NewRingBuffer(ringCap)
	advance(t, r, ringCap-5)
	p, _ := protocol.NewParser(r)
	var want [][]byte
	var stream []byte
	for i, n := range []int{0, 1, 7, 12, 3} {
		pl := payloadOf(n, byte(i))
		want = append(want, pl)
		stream, _ = protocol.AppendFrame(stream, pl)
	}
	if _, err := r.Write(stream); err != nil {
		t.Fatal(err)
	}
	var got [][]byte
	for {
		pl, ok, err := p.TryParse()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, pl)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("frame %d mismatch", i)
		}
	}
}

func TestParserPartialFrame(t *testing.T) {
	r := buffer.NewRingBuffer(ringCap)
	advance(t, r, ringCap-1)
	p, _ := protocol.NewParser(r)
	frame, _ := protocol.EncodeFrame([]byte("abcde"))

	// One byte of header only.
	r.Write(frame[:1])
	if _, ok, err := p.TryParse(); ok || err != nil {
		t.Fatalf("half header: ok=%v err=%v", ok, err)
	}
	// Header complete, body short.
	r.Write(frame[1:4])
	if _, ok, err := p.TryParse(); ok || err != nil {
		t.Fatalf("short body: ok=%v err=%v", ok, err)
	}
	if r.DataSize() != 4 {
		t.Fatalf("partial parse consumed bytes: DataSize = %d", r.DataSize())
	}
	r.Write(frame[4:])
	got, ok, err := p.TryParse()
	if err != nil || !ok || string(got) != "abcde" {
		t.Fatalf("got %q ok=%v err=%v", got, ok, err)
	}
	if r.DataSize() != 0 {
		t.Fatalf("DataSize = %d after full parse", r.DataSize())
	}
}

func TestParserPayloadIsCopied(t *testing.T) {
	r := buffer.NewRingBuffer(ringCap)
	p, _ := protocol.NewParser(r)
	frame, _ := protocol.EncodeFrame([]byte("xyz"))
	r.Write(frame)
	got, _, _ := p.TryParse()
	r.Write(bytes.Repeat([]byte{0xFF}, ringCap-1))
	if string(got) != "xyz" {
		t.Fatalf("payload aliased ring storage: %q", got)
	}
}

func TestParserRejectsBadLengths(t *testing.T) {
	cases := []struct {
		name   string
		header []byte
		want   error
	}{
		{"below header", []byte{0x01, 0x00}, api.ErrMalformedFrame},
		{"zero", []byte{0x00, 0x00}, api.ErrMalformedFrame},
		{"beyond ring", []byte{ringCap, 0x00}, api.ErrFrameTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := buffer.NewRingBuffer(ringCap)
			p, _ := protocol.NewParser(r)
			r.Write(tc.header)
			if _, ok, err := p.TryParse(); ok || !errors.Is(err, tc.want) {
				t.Fatalf("ok=%v err=%v, want %v", ok, err, tc.want)
			}
		})
	}
}
