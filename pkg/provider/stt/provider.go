// Package stt defines the Transcriber interface for speech-to-text backends.
//
// A transcriber receives one complete recorded answer as a single audio
// payload and returns its transcript. Implementations wrap a local engine
// (whisper.cpp) or a remote API (whisper-server, Deepgram) behind a uniform
// batch interface; none of them maintain per-call state, so a single
// Transcriber may serve many answers concurrently.
package stt

import (
	"context"
	"errors"
)

// ErrEmptyAudio is returned when a transcription request carries no audio
// bytes at all, e.g. when a recording attempt produced zero chunks.
var ErrEmptyAudio = errors.New("stt: audio payload is empty")

// Request is one complete recorded answer to transcribe.
type Request struct {
	// MIME is the media type of Audio, e.g. "audio/wav".
	MIME string

	// Audio is the raw encoded audio bytes.
	Audio []byte

	// Language is an optional BCP-47 language hint (e.g. "en", "de").
	// Empty means use the provider default.
	Language string
}

// Validate reports whether the request can be submitted at all.
func (r Request) Validate() error {
	if len(r.Audio) == 0 {
		return ErrEmptyAudio
	}
	if r.MIME == "" {
		return errors.New("stt: MIME must not be empty")
	}
	return nil
}

// Result is the outcome of a successful transcription.
type Result struct {
	// Text is the full transcript of the audio payload.
	Text string

	// Confidence is the backend's confidence in Text, in [0.0, 1.0].
	// Zero when the backend does not report one.
	Confidence float64
}

// Transcriber converts a recorded audio payload to text.
//
// Implementations must be safe for concurrent use and must honour context
// cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (Result, error)
}
