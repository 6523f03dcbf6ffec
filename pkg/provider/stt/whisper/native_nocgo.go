//go:build !cgo

// Non-CGO stub for the NativeProvider. The whisper.cpp Go bindings require
// CGO; when building with CGO_ENABLED=0 this file preserves the package API
// and NewNative reports that the native backend is unavailable.

package whisper

import (
	"context"
	"errors"

	"github.com/voxprep/voxprep/pkg/provider/stt"
)

// Compile-time assertion that NativeProvider satisfies stt.Transcriber.
var _ stt.Transcriber = (*NativeProvider)(nil)

// NativeProvider implements stt.Transcriber using whisper.cpp Go bindings
// (CGO). This stub is compiled when CGO is disabled; it cannot be
// constructed.
type NativeProvider struct {
	language string
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The native backend requires CGO; without it this
// always returns an error.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	return nil, errors.New("whisper: native backend requires a CGO-enabled build")
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *NativeProvider) Close() error { return nil }

// Transcribe implements stt.Transcriber. The native backend requires CGO;
// this stub always returns an error.
func (p *NativeProvider) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	return stt.Result{}, errors.New("whisper: native backend requires a CGO-enabled build")
}
