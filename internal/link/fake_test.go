package link_test

import (
	"bytes"
	"sync"

	"github.com/goburrow/serial"
)

// fakePort replays scripted chunks. An empty chunk or an exhausted script
// reads as a serial timeout. respond may enqueue replies for each write.
type fakePort struct {
	mu      sync.Mutex
	written bytes.Buffer
	frames  [][]byte
	chunks  [][]byte
	respond func(frame []byte) [][]byte
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chunks) == 0 {
		return 0, serial.ErrTimeout
	}
	chunk := p.chunks[0]
	if len(chunk) == 0 {
		p.chunks = p.chunks[1:]
		return 0, serial.ErrTimeout
	}
	n := copy(b, chunk)
	if n < len(chunk) {
		p.chunks[0] = chunk[n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written.Write(b)
	p.frames = append(p.frames, append([]byte(nil), b...))
	if p.respond != nil {
		p.chunks = append(p.chunks, p.respond(b)...)
	}
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) queue(chunks ...[]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, chunks...)
}

func (p *fakePort) writtenFrames() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.frames...)
}

// fakeSignals reports HELO2 and the lid switch. The funcs receive the number
// of prior calls so tests can flip a line mid-wait.
type fakeSignals struct {
	alive     func(call int) bool
	lid       func(call int) bool
	aliveCall int
	lidCall   int
}

func (s *fakeSignals) PeerAlive() bool {
	s.aliveCall++
	if s.alive == nil {
		return true
	}
	return s.alive(s.aliveCall - 1)
}

func (s *fakeSignals) LidOpen() bool {
	s.lidCall++
	if s.lid == nil {
		return true
	}
	return s.lid(s.lidCall - 1)
}
