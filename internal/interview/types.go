// Package interview implements the interview session orchestrator: the state
// machine that drives a mock interview from job description to scored
// feedback.
//
// The orchestrator owns all mutable session state and exposes it only through
// named transition methods and read-only snapshots. Two nested state machines
// are enforced: the session stage (start, interviewing, evaluating, feedback)
// and the per-question recording lifecycle (idle, recording, processing,
// done). All collaborators (question generation, transcription, evaluation,
// comparison, history, device capture) are injected interfaces, so the
// orchestrator is fully testable without devices or network access.
package interview

import (
	"context"
	"errors"
	"log/slog"

	"github.com/voxprep/voxprep/internal/flows"
)

// Stage is the coarse phase of one interview session.
type Stage int

const (
	// StageStart is the initial phase: collecting a job description.
	StageStart Stage = iota

	// StageInterviewing is the question/answer phase.
	StageInterviewing

	// StageEvaluating is the scoring phase; entered only when every answer
	// has been submitted.
	StageEvaluating

	// StageFeedback is the terminal phase showing the scored report.
	StageFeedback
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageInterviewing:
		return "interviewing"
	case StageEvaluating:
		return "evaluating"
	case StageFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// RecordingState is the fine-grained lifecycle of the active question's
// answer recording.
type RecordingState int

const (
	// RecIdle means no recording exists for the active question.
	RecIdle RecordingState = iota

	// RecRecording means audio is being captured.
	RecRecording

	// RecProcessing means capture has stopped and the payload is being
	// transcribed.
	RecProcessing

	// RecDone means the active question has an answer text, either
	// transcribed or typed.
	RecDone
)

// String implements fmt.Stringer.
func (s RecordingState) String() string {
	switch s {
	case RecIdle:
		return "idle"
	case RecRecording:
		return "recording"
	case RecProcessing:
		return "processing"
	case RecDone:
		return "done"
	default:
		return "unknown"
	}
}

// Answer is one question/answer pair within a session. Text is mutable until
// Submitted flips to true; Submitted never reverts within a session.
type Answer struct {
	Question  string
	Text      string
	Submitted bool
}

// Snapshot is a read-only copy of the orchestrator's state, safe to hand to
// a rendering layer.
type Snapshot struct {
	Stage          Stage
	JobDescription string
	Answers        []Answer
	Index          int
	Recording      RecordingState
	HasVideo       bool
	Score          float64
	FeedbackReport string
	Comparison     flows.Comparison
}

// Question returns the active question text, or "" outside a session.
func (s Snapshot) Question() string {
	if s.Index < 0 || s.Index >= len(s.Answers) {
		return ""
	}
	return s.Answers[s.Index].Question
}

// Sentinel errors returned by transition guards. All are recoverable; the
// orchestrator never changes state when returning one.
var (
	ErrClosed              = errors.New("interview: orchestrator is closed")
	ErrWrongStage          = errors.New("interview: operation not valid in current stage")
	ErrRecorderBusy        = errors.New("interview: recording or transcription in progress")
	ErrNotAllSubmitted     = errors.New("interview: not every answer has been submitted")
	ErrEmptyJobDescription = errors.New("interview: job description must not be empty")
	ErrNoStream            = errors.New("interview: no capture stream available")
	ErrEmptyRecording      = errors.New("interview: recording captured no audio")
	ErrAlreadySubmitted    = errors.New("interview: answer already submitted")
	ErrAnswerNotReady      = errors.New("interview: answer is not ready to submit")
	ErrIndexOutOfRange     = errors.New("interview: question index out of range")
)

// QuestionSource generates interview questions for a job description.
type QuestionSource interface {
	Generate(ctx context.Context, jobDescription string, count int) ([]string, error)
}

// Evaluator scores a finished interview transcript.
type Evaluator interface {
	Evaluate(ctx context.Context, jobDescription, transcript string) (flows.Evaluation, error)
}

// Comparator analyses progress between two scored interviews.
type Comparator interface {
	Compare(ctx context.Context, previous, current flows.InterviewSummary) (flows.Comparison, error)
}

// Notifier receives user-visible notices (the toast analogue of a graphical
// front-end). Implementations must not call back into the orchestrator; they
// are invoked with its lock held.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) { f(message) }

// slogNotifier is the default Notifier, logging notices at info level.
type slogNotifier struct{}

func (slogNotifier) Notify(message string) {
	slog.Info("interview notice", "message", message)
}
