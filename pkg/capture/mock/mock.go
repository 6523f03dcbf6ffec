// Package mock provides scripted test doubles for the capture package.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/voxprep/voxprep/pkg/capture"
)

// Stream is a scripted capture.Stream. Read serves the configured PCM in
// chunks and then blocks until Close (mirroring a live device that keeps the
// pipe open), or returns io.EOF once drained if EOFWhenDrained is set.
type Stream struct {
	mu sync.Mutex

	// PCM is the audio served by Read.
	PCM []byte

	// Video is returned by HasVideo.
	Video bool

	// EOFWhenDrained makes Read return io.EOF after PCM is exhausted
	// instead of blocking.
	EOFWhenDrained bool

	// CloseCount is the number of times Close was called.
	CloseCount int

	// CloseErr is returned by Close.
	CloseErr error

	offset int
	done   chan struct{}
	once   sync.Once
}

func (s *Stream) doneCh() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return s.done
}

// Read implements capture.Stream.
func (s *Stream) Read(p []byte) (int, error) {
	done := s.doneCh()

	s.mu.Lock()
	if s.offset < len(s.PCM) {
		n := copy(p, s.PCM[s.offset:])
		s.offset += n
		s.mu.Unlock()
		return n, nil
	}
	eof := s.EOFWhenDrained
	s.mu.Unlock()

	if eof {
		return 0, io.EOF
	}
	<-done
	return 0, io.EOF
}

// HasVideo implements capture.Stream.
func (s *Stream) HasVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Video
}

// Close implements capture.Stream. Safe to call more than once; every call
// is counted.
func (s *Stream) Close() error {
	done := s.doneCh()
	s.once.Do(func() { close(done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCount++
	return s.CloseErr
}

// AcquireCall records one invocation of Acquire.
type AcquireCall struct {
	Ctx context.Context
	Cfg capture.StreamConfig
}

// Platform is a scripted capture.Platform.
type Platform struct {
	mu sync.Mutex

	// Streams, if non-empty, is consumed one element per Acquire call.
	// When exhausted (or empty), AcquireStream is returned.
	Streams []*Stream

	// AcquireStream is the fallback stream returned by Acquire. If nil and
	// Streams is exhausted, Acquire builds a fresh empty Stream.
	AcquireStream *Stream

	// AcquireErr, if non-nil, is returned as the error from Acquire.
	AcquireErr error

	// Calls records every invocation of Acquire in order.
	Calls []AcquireCall
}

// Acquire implements capture.Platform.
func (p *Platform) Acquire(ctx context.Context, cfg capture.StreamConfig) (capture.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, AcquireCall{Ctx: ctx, Cfg: cfg})

	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	if len(p.Streams) > 0 {
		s := p.Streams[0]
		p.Streams = p.Streams[1:]
		return s, nil
	}
	if p.AcquireStream != nil {
		return p.AcquireStream, nil
	}
	return &Stream{EOFWhenDrained: true}, nil
}

// CallCount returns the number of recorded Acquire calls. Thread-safe.
func (p *Platform) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

var (
	_ capture.Platform = (*Platform)(nil)
	_ capture.Stream   = (*Stream)(nil)
)
