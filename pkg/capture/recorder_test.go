package capture_test

import (
	"encoding/binary"
	"testing"

	"github.com/voxprep/voxprep/pkg/capture"
	"github.com/voxprep/voxprep/pkg/capture/mock"
)

func TestRecorder_StopAssemblesWAVPayload(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	stream := &mock.Stream{PCM: pcm, EOFWhenDrained: true}

	r := capture.NewRecorder(stream, 16000, 1)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	payload, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if payload.Empty() {
		t.Fatal("payload is empty, want captured audio")
	}
	if payload.MIME != "audio/wav" {
		t.Errorf("MIME = %q, want audio/wav", payload.MIME)
	}
	if got := string(payload.Data[0:4]); got != "RIFF" {
		t.Errorf("payload missing RIFF header, got %q", got)
	}
	if got := string(payload.Data[44:]); got != string(pcm) {
		t.Errorf("payload PCM = %v, want %v", payload.Data[44:], pcm)
	}
	if sr := binary.LittleEndian.Uint32(payload.Data[24:28]); sr != 16000 {
		t.Errorf("sample rate in header = %d, want 16000", sr)
	}
}

func TestRecorder_ZeroBytes_YieldsEmptyPayload(t *testing.T) {
	t.Parallel()

	stream := &mock.Stream{EOFWhenDrained: true}
	r := capture.NewRecorder(stream, 16000, 1)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	payload, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !payload.Empty() {
		t.Errorf("payload not empty: %d bytes", len(payload.Data))
	}
}

func TestRecorder_StopWithoutStart_ReturnsError(t *testing.T) {
	t.Parallel()

	r := capture.NewRecorder(&mock.Stream{EOFWhenDrained: true}, 16000, 1)
	if _, err := r.Stop(); err == nil {
		t.Fatal("expected error for Stop before Start, got nil")
	}
}

func TestRecorder_DoubleStart_ReturnsError(t *testing.T) {
	t.Parallel()

	r := capture.NewRecorder(&mock.Stream{EOFWhenDrained: true}, 16000, 1)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(); err == nil {
		t.Fatal("expected error for second Start, got nil")
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestRecorder_DoubleStop_ReturnsError(t *testing.T) {
	t.Parallel()

	r := capture.NewRecorder(&mock.Stream{EOFWhenDrained: true}, 16000, 1)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if _, err := r.Stop(); err == nil {
		t.Fatal("expected error for second Stop, got nil")
	}
}

func TestRecorder_DoesNotCloseStream(t *testing.T) {
	t.Parallel()

	stream := &mock.Stream{PCM: []byte{1, 0}, EOFWhenDrained: true}
	r := capture.NewRecorder(stream, 16000, 1)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stream.CloseCount != 0 {
		t.Errorf("stream CloseCount = %d, want 0 (stream lifecycle belongs to caller)", stream.CloseCount)
	}
}
