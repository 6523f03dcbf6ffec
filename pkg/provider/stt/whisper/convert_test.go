package whisper

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildWAV wraps PCM data in a minimal RIFF/WAV container for decode tests.
func buildWAV(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2
	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

func TestPcmToFloat32_Normalisation(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 6)
	binary.LittleEndian.PutUint16(pcm[0:2], uint16(int16(0)))
	binary.LittleEndian.PutUint16(pcm[2:4], uint16(int16(16384)))
	negFull := int16(-32768)
	binary.LittleEndian.PutUint16(pcm[4:6], uint16(negFull))

	samples := pcmToFloat32(pcm)
	if len(samples) != 3 {
		t.Fatalf("len = %d, want 3", len(samples))
	}
	want := []float32{0, 0.5, -1.0}
	for i, w := range want {
		if math.Abs(float64(samples[i]-w)) > 1e-6 {
			t.Errorf("sample[%d] = %f, want %f", i, samples[i], w)
		}
	}
}

func TestPcmToFloat32Mono_AveragesChannels(t *testing.T) {
	t.Parallel()

	// One stereo frame: left = 16384 (0.5), right = -16384 (-0.5).
	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:2], uint16(int16(16384)))
	negHalf := int16(-16384)
	binary.LittleEndian.PutUint16(pcm[2:4], uint16(negHalf))

	mono := pcmToFloat32Mono(pcm, 2)
	if len(mono) != 1 {
		t.Fatalf("len = %d, want 1", len(mono))
	}
	if math.Abs(float64(mono[0])) > 1e-6 {
		t.Errorf("mono[0] = %f, want 0", mono[0])
	}
}

func TestDecodeWAV_RoundTrip(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	wav := buildWAV(pcm, 16000, 1)

	info, err := decodeWAV(wav)
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if info.sampleRate != 16000 {
		t.Errorf("sampleRate = %d, want 16000", info.sampleRate)
	}
	if info.channels != 1 {
		t.Errorf("channels = %d, want 1", info.channels)
	}
	if string(info.pcm) != string(pcm) {
		t.Errorf("pcm mismatch: got %v, want %v", info.pcm, pcm)
	}
}

func TestDecodeWAV_NotRIFF_ReturnsError(t *testing.T) {
	t.Parallel()
	if _, err := decodeWAV([]byte("definitely not a wav file")); err == nil {
		t.Fatal("expected error for non-RIFF input, got nil")
	}
}

func TestDecodeWAV_NonPCMFormat_ReturnsError(t *testing.T) {
	t.Parallel()
	wav := buildWAV([]byte{0, 0}, 16000, 1)
	// Overwrite audio format with 3 (IEEE float).
	binary.LittleEndian.PutUint16(wav[20:22], 3)
	if _, err := decodeWAV(wav); err == nil {
		t.Fatal("expected error for non-PCM format, got nil")
	}
}

func TestDecodeWAV_MissingData_ReturnsError(t *testing.T) {
	t.Parallel()
	wav := buildWAV(nil, 16000, 1)
	if _, err := decodeWAV(wav); err == nil {
		t.Fatal("expected error for empty data chunk, got nil")
	}
}
