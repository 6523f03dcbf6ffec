// Package capture abstracts local media device access for answer recording.
//
// A Platform acquires a live Stream from the machine's microphone (and,
// when available, camera). Exactly one Stream should be live per interview
// session at a time; the orchestrator is responsible for closing it on every
// exit path. The Recorder in this package accumulates PCM audio from a
// Stream and assembles the final payload handed to transcription.
package capture

import (
	"context"
	"errors"
)

// ErrNoDevice is returned by Acquire when no usable audio input device can
// be opened. Video absence is never an error; see Stream.HasVideo.
var ErrNoDevice = errors.New("capture: no usable audio input device")

// StreamConfig describes the media stream to acquire.
type StreamConfig struct {
	// SampleRate is the PCM sample rate in Hz. Zero means 16000.
	SampleRate int

	// Channels is the PCM channel count. Zero means 1.
	Channels int

	// InputFormat is the platform capture backend (e.g. "pulse", "alsa",
	// "avfoundation"). Empty means the platform default.
	InputFormat string

	// InputDevice names the audio input device. Empty means "default".
	InputDevice string

	// WantVideo requests camera capture alongside audio. Camera absence or
	// denial is non-fatal; the acquired stream reports HasVideo() == false
	// and audio-only capture continues.
	WantVideo bool

	// VideoDevice names the camera device to probe (e.g. "/dev/video0").
	// Empty means the platform default.
	VideoDevice string
}

// Stream is a live media stream. Read yields raw 16-bit signed little-endian
// PCM audio. Close tears down the underlying device; it is safe to call more
// than once.
type Stream interface {
	Read(p []byte) (n int, err error)
	HasVideo() bool
	Close() error
}

// Platform opens media streams on the local machine.
type Platform interface {
	// Acquire opens a new live stream. It returns ErrNoDevice (possibly
	// wrapped) when no audio input can be opened at all.
	Acquire(ctx context.Context, cfg StreamConfig) (Stream, error)
}
