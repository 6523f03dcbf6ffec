package interview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxprep/voxprep/pkg/capture"
	"github.com/voxprep/voxprep/pkg/provider/stt"
)

// StartRecording begins capturing audio for the active question. Only valid
// from the idle recording state with a live device stream.
func (o *Orchestrator) StartRecording() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.stage != StageInterviewing {
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	switch o.recState {
	case RecRecording, RecProcessing:
		return ErrRecorderBusy
	case RecDone:
		return fmt.Errorf("interview: answer already recorded, reset to re-record")
	}
	if o.answers[o.index].Submitted {
		return ErrAlreadySubmitted
	}
	if o.stream == nil {
		o.notifier.Notify("No microphone stream. Type your answer instead.")
		return ErrNoStream
	}

	rec := capture.NewRecorder(o.stream, o.streamCfg.SampleRate, o.streamCfg.Channels)
	if err := rec.Start(); err != nil {
		return fmt.Errorf("interview: start recorder: %w", err)
	}
	o.recorder = rec
	o.recState = RecRecording
	o.metrics.ActiveRecordings.Add(context.Background(), 1)
	return nil
}

// StopRecording stops capture, assembles the payload, and dispatches it to
// transcription. The processing state is exited asynchronously when the
// transcript arrives; a zero-byte capture returns to idle immediately with
// ErrEmptyRecording.
func (o *Orchestrator) StopRecording(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.stage != StageInterviewing {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	if o.recState != RecRecording {
		o.mu.Unlock()
		return fmt.Errorf("interview: cannot stop recording from state %s", o.recState)
	}
	rec := o.recorder
	o.recorder = nil
	gen := o.generation
	o.mu.Unlock()

	// Stop waits for the pump goroutine; keep the lock released. Navigation
	// is still refused meanwhile because the state stays in recording.
	payload, err := rec.Stop()
	o.metrics.ActiveRecordings.Add(ctx, -1)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.generation != gen {
		return nil
	}
	if err != nil {
		o.recState = RecIdle
		o.notifier.Notify("Recording failed. Please try again.")
		return fmt.Errorf("interview: stop recorder: %w", err)
	}
	if payload.Empty() {
		o.recState = RecIdle
		o.notifier.Notify("No audio was captured. Please try again.")
		return ErrEmptyRecording
	}

	o.recState = RecProcessing
	go o.transcribe(context.WithoutCancel(ctx), gen, o.index, payload)
	return nil
}

// transcribe runs the transcription call and applies its result, unless the
// session has moved on since dispatch.
func (o *Orchestrator) transcribe(ctx context.Context, gen uint64, idx int, payload capture.Payload) {
	req := stt.Request{MIME: payload.MIME, Audio: payload.Data, Language: o.language}

	start := time.Now()
	result, err := o.collab.Transcriber.Transcribe(ctx, req)
	o.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.generation != gen {
		slog.Debug("discarding stale transcription result", "generation", gen)
		return
	}
	if err != nil {
		o.metrics.RecordCollaboratorRequest(ctx, "transcription", "error")
		o.metrics.RecordCollaboratorError(ctx, "transcription")
		slog.Error("transcription failed", "question", idx, "err", err)
		o.recState = RecIdle
		o.notifier.Notify("Transcription failed. Please record your answer again.")
		return
	}
	o.metrics.RecordCollaboratorRequest(ctx, "transcription", "ok")
	o.answers[idx].Text = result.Text
	o.recState = RecDone
}

// ResetRecording discards the active question's answer text and returns the
// recording state to idle so the answer can be re-recorded. Refused once the
// answer has been submitted.
func (o *Orchestrator) ResetRecording() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.stage != StageInterviewing {
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	if o.recState != RecDone {
		return fmt.Errorf("interview: nothing to re-record in state %s", o.recState)
	}
	if o.answers[o.index].Submitted {
		return ErrAlreadySubmitted
	}
	o.answers[o.index].Text = ""
	o.recState = RecIdle
	o.generation++
	return nil
}

// EditAnswer replaces the active question's answer text. A non-empty text
// marks the answer ready to submit; clearing it returns to idle.
func (o *Orchestrator) EditAnswer(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.stage != StageInterviewing {
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	if o.recState == RecRecording || o.recState == RecProcessing {
		return ErrRecorderBusy
	}
	if o.answers[o.index].Submitted {
		return ErrAlreadySubmitted
	}
	o.answers[o.index].Text = text
	if text == "" {
		o.recState = RecIdle
	} else {
		o.recState = RecDone
	}
	return nil
}

// SubmitAnswer confirms the active question's answer. Submission is
// irreversible within a session. If a later question remains, the
// orchestrator auto-advances and arms a fresh recording session for it.
func (o *Orchestrator) SubmitAnswer(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.stage != StageInterviewing {
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	a := &o.answers[o.index]
	if a.Submitted {
		return ErrAlreadySubmitted
	}
	if o.recState != RecDone || a.Text == "" {
		o.notifier.Notify("Record or type an answer before submitting.")
		return ErrAnswerNotReady
	}

	a.Submitted = true
	if o.index < len(o.answers)-1 {
		o.rearmLocked(ctx, o.index+1)
		return nil
	}
	if o.allSubmittedLocked() {
		o.notifier.Notify("All questions answered. Finish the interview when you are ready.")
	} else {
		o.notifier.Notify("Some earlier questions are still unanswered.")
	}
	return nil
}

func (o *Orchestrator) allSubmittedLocked() bool {
	for _, a := range o.answers {
		if !a.Submitted {
			return false
		}
	}
	return true
}
