package capture

import (
	"errors"
	"io"
	"sync"
)

// readChunkSize is the per-Read buffer size while pumping PCM from a stream.
// At 16 kHz mono 16-bit this is 128 ms of audio per read.
const readChunkSize = 4096

// Payload is one complete recorded answer, ready for transcription.
type Payload struct {
	// MIME is the media type of Data, always "audio/wav" for this recorder.
	MIME string

	// Data is the encoded audio container.
	Data []byte
}

// Empty reports whether the recording captured no audio at all. An empty
// payload means the recording attempt failed and must not be transcribed.
func (p Payload) Empty() bool {
	return len(p.Data) == 0
}

// Recorder accumulates PCM audio from a Stream between Start and Stop and
// assembles the captured audio into a single WAV payload.
//
// A Recorder is single-use: Start may be called once, then Stop once.
type Recorder struct {
	stream     Stream
	sampleRate int
	channels   int

	mu      sync.Mutex
	pcm     []byte
	started bool
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewRecorder creates a Recorder bound to the given stream. sampleRate and
// channels must match the PCM format the stream delivers.
func NewRecorder(stream Stream, sampleRate, channels int) *Recorder {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	return &Recorder{
		stream:     stream,
		sampleRate: sampleRate,
		channels:   channels,
		done:       make(chan struct{}),
	}
}

// Start begins pumping PCM from the stream into the recorder's buffer.
// It returns an error if the recorder was already started.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("capture: recorder already started")
	}
	r.started = true

	r.wg.Add(1)
	go r.pump()
	return nil
}

// pump reads PCM chunks from the stream until the stream errors out or the
// recorder is stopped. Read errors end the pump silently; whatever audio was
// captured up to that point remains available to Stop.
func (r *Recorder) pump() {
	defer r.wg.Done()
	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-r.done:
			return
		default:
		}

		n, err := r.stream.Read(buf)
		if n > 0 {
			r.mu.Lock()
			if !r.stopped {
				r.pcm = append(r.pcm, buf[:n]...)
			}
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				// Device read failure mid-recording. Keep what we have.
			}
			return
		}
	}
}

// Stop ends the recording and returns the assembled WAV payload. A recording
// that captured zero bytes yields an empty payload (Payload.Empty() == true),
// never a fabricated container.
//
// Stop does not close the underlying stream; stream lifecycle belongs to the
// caller.
func (r *Recorder) Stop() (Payload, error) {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return Payload{}, errors.New("capture: recorder was never started")
	}
	if r.stopped {
		r.mu.Unlock()
		return Payload{}, errors.New("capture: recorder already stopped")
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.done)
	r.wg.Wait()

	r.mu.Lock()
	pcm := r.pcm
	r.pcm = nil
	r.mu.Unlock()

	if len(pcm) == 0 {
		return Payload{MIME: "audio/wav"}, nil
	}
	return Payload{
		MIME: "audio/wav",
		Data: EncodeWAV(pcm, r.sampleRate, r.channels),
	}, nil
}
