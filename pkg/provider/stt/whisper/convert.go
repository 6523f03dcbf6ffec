package whisper

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// pcmToFloat32 converts 16-bit signed little-endian PCM audio to float32
// samples normalised to the range [-1.0, 1.0]. The input length must be
// even (two bytes per sample); any trailing odd byte is silently ignored.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// pcmToFloat32Mono down-mixes multi-channel 16-bit PCM to mono float32 by
// averaging all channels per frame. If channels is 1 this is equivalent to
// pcmToFloat32.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels <= 1 {
		return pcmToFloat32(pcm)
	}
	samplesPerChannel := len(pcm) / (2 * channels)
	mono := make([]float32, samplesPerChannel)
	for i := range samplesPerChannel {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// wavInfo describes the PCM stream inside a RIFF/WAV container.
type wavInfo struct {
	sampleRate int
	channels   int
	pcm        []byte
}

// decodeWAV extracts 16-bit PCM data and format information from a RIFF/WAV
// container. Only uncompressed 16-bit PCM (audio format 1) is supported,
// which is the format the capture layer produces.
func decodeWAV(data []byte) (wavInfo, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return wavInfo{}, errors.New("whisper: not a RIFF/WAVE file")
	}

	var info wavInfo
	haveFmt := false

	// Walk the chunk list. Chunks are [4-byte ID][4-byte LE size][payload].
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return wavInfo{}, errors.New("whisper: fmt chunk too short")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return wavInfo{}, fmt.Errorf("whisper: unsupported WAV audio format %d (want PCM)", format)
			}
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != 16 {
				return wavInfo{}, fmt.Errorf("whisper: unsupported WAV bit depth %d (want 16)", bits)
			}
			info.channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			haveFmt = true

		case "data":
			info.pcm = data[body : body+size]
		}

		// Chunk payloads are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return wavInfo{}, errors.New("whisper: missing fmt chunk")
	}
	if len(info.pcm) == 0 {
		return wavInfo{}, errors.New("whisper: missing or empty data chunk")
	}
	return info, nil
}
