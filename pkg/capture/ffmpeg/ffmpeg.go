// Package ffmpeg implements capture.Platform using an ffmpeg subprocess.
//
// Audio is captured as raw s16le PCM written to ffmpeg's stdout. Camera
// presence is probed separately and only reflected in Stream.HasVideo;
// a missing or denied camera never fails acquisition.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/voxprep/voxprep/pkg/capture"
)

// startupGrace is how long a freshly spawned ffmpeg gets to fail fast (bad
// device, missing backend) before we treat the capture as live.
const startupGrace = 250 * time.Millisecond

// Compile-time assertion that Platform implements capture.Platform.
var _ capture.Platform = (*Platform)(nil)

// Platform spawns ffmpeg subprocesses to capture microphone audio.
type Platform struct {
	command string
}

// New creates a Platform using the given ffmpeg command. Empty means
// "ffmpeg" resolved via PATH.
func New(command string) *Platform {
	if command == "" {
		command = "ffmpeg"
	}
	return &Platform{command: command}
}

// Acquire implements capture.Platform. It starts an ffmpeg process reading
// from the configured audio input and producing s16le PCM on stdout. When
// cfg.WantVideo is set the camera device is probed; probe failure degrades
// to audio-only capture.
func (p *Platform) Acquire(ctx context.Context, cfg capture.StreamConfig) (capture.Stream, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = defaultInputFormat()
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture: create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("capture: start ffmpeg: %w (%w)", err, capture.ErrNoDevice)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// ffmpeg fails almost immediately on a bad device; give it a moment.
	select {
	case err := <-waitErr:
		detail := trimmed(stderr.String())
		if err != nil {
			return nil, fmt.Errorf("capture: ffmpeg exited before capture started: %v: %s: %w", err, detail, capture.ErrNoDevice)
		}
		return nil, fmt.Errorf("capture: ffmpeg exited before capture started: %s: %w", detail, capture.ErrNoDevice)
	case <-time.After(startupGrace):
	}

	hasVideo := false
	if cfg.WantVideo {
		hasVideo = probeVideo(cfg.VideoDevice)
		if !hasVideo {
			slog.Warn("camera unavailable, continuing audio-only", "device", cfg.VideoDevice)
		}
	}

	return &stream{
		stdout:   stdout,
		stderr:   &stderr,
		process:  cmd.Process,
		waitErr:  waitErr,
		hasVideo: hasVideo,
	}, nil
}

// defaultInputFormat picks the ffmpeg capture backend for the current OS.
func defaultInputFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "pulse"
	}
}

// probeVideo reports whether a camera device appears usable. On Linux this
// checks the v4l2 device node; on other platforms presence cannot be checked
// cheaply and the camera is assumed present.
func probeVideo(device string) bool {
	if runtime.GOOS != "linux" {
		return true
	}
	if device == "" {
		device = "/dev/video0"
	}
	_, err := os.Stat(device)
	return err == nil
}

// stream is a live ffmpeg capture. It implements capture.Stream.
type stream struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process  *os.Process
	waitErr  <-chan error
	hasVideo bool

	stopOnce sync.Once
	stopErr  error
}

func (s *stream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *stream) HasVideo() bool {
	return s.hasVideo
}

// Close terminates the ffmpeg process. Interrupt first so ffmpeg can flush,
// then kill after a grace period. Safe to call more than once.
func (s *stream) Close() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr.String()))
		}
	})

	return s.stopErr
}

// normalizeStopErr suppresses the exit status error that a signalled ffmpeg
// always reports.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmed(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
