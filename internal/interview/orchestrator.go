package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/voxprep/voxprep/internal/flows"
	"github.com/voxprep/voxprep/internal/history"
	"github.com/voxprep/voxprep/internal/observe"
	"github.com/voxprep/voxprep/pkg/capture"
	"github.com/voxprep/voxprep/pkg/provider/stt"
)

// Collaborators are the external capabilities the orchestrator drives.
// Capture is optional; without it recording is unavailable and answers must
// be typed. Everything else is required.
type Collaborators struct {
	Questions   QuestionSource
	Transcriber stt.Transcriber
	Evaluator   Evaluator
	Comparator  Comparator
	History     history.Store
	Capture     capture.Platform
}

// Orchestrator is the interview session state machine. All exported methods
// are safe for concurrent use; state is mutated only under the internal lock
// and only through guarded transitions.
//
// A monotonically increasing generation counter is attached to every
// asynchronous dispatch. Results arriving after the session has moved on
// (navigation, reset, close) compare their generation against the current
// one and are discarded, never applied to unrelated state.
type Orchestrator struct {
	collab   Collaborators
	notifier Notifier
	metrics  *observe.Metrics

	streamCfg     capture.StreamConfig
	questionCount int
	language      string

	mu             sync.Mutex
	closed         bool
	stage          Stage
	jobDescription string
	answers        []Answer
	index          int
	recState       RecordingState
	stream         capture.Stream
	recorder       *capture.Recorder
	generation     uint64
	score          float64
	feedbackReport string
	comparison     flows.Comparison
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier sets the sink for user-visible notices. The default logs
// notices via slog.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithStreamConfig sets the device stream configuration used when entering
// the interviewing stage.
func WithStreamConfig(cfg capture.StreamConfig) Option {
	return func(o *Orchestrator) {
		o.streamCfg = cfg
	}
}

// WithQuestionCount sets how many questions are generated per session.
// Values below 1 keep the default.
func WithQuestionCount(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.questionCount = n
		}
	}
}

// WithLanguage sets the BCP-47 language hint passed to transcription.
func WithLanguage(lang string) Option {
	return func(o *Orchestrator) {
		o.language = lang
	}
}

// WithMetrics sets the metrics instance. The default is the package-level
// observe instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// New validates the collaborator set and returns a ready Orchestrator in
// the start stage.
func New(c Collaborators, opts ...Option) (*Orchestrator, error) {
	var errs []error
	if c.Questions == nil {
		errs = append(errs, errors.New("interview: QuestionSource is required"))
	}
	if c.Transcriber == nil {
		errs = append(errs, errors.New("interview: Transcriber is required"))
	}
	if c.Evaluator == nil {
		errs = append(errs, errors.New("interview: Evaluator is required"))
	}
	if c.Comparator == nil {
		errs = append(errs, errors.New("interview: Comparator is required"))
	}
	if c.History == nil {
		errs = append(errs, errors.New("interview: history Store is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		collab:        c,
		notifier:      slogNotifier{},
		questionCount: flows.DefaultQuestionCount,
		stage:         StageStart,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o, nil
}

// Begin starts a session: it generates questions for the job description and
// enters the interviewing stage. On generator failure the orchestrator stays
// in the start stage and the error is returned.
func (o *Orchestrator) Begin(ctx context.Context, jobDescription string) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.stage != StageStart {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	if strings.TrimSpace(jobDescription) == "" {
		o.mu.Unlock()
		return ErrEmptyJobDescription
	}
	gen := o.generation
	count := o.questionCount
	o.mu.Unlock()

	start := time.Now()
	questions, err := o.collab.Questions.Generate(ctx, jobDescription, count)
	o.metrics.QuestionGenDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordCollaboratorRequest(ctx, "question_gen", "error")
		o.metrics.RecordCollaboratorError(ctx, "question_gen")
		o.mu.Lock()
		o.notifier.Notify("Could not generate interview questions. Please try again.")
		o.mu.Unlock()
		return fmt.Errorf("interview: generate questions: %w", err)
	}
	o.metrics.RecordCollaboratorRequest(ctx, "question_gen", "ok")

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.generation != gen || o.stage != StageStart {
		slog.Debug("discarding stale question generation result", "generation", gen)
		return nil
	}

	o.jobDescription = jobDescription
	o.answers = make([]Answer, len(questions))
	for i, q := range questions {
		o.answers[i] = Answer{Question: q}
	}
	o.index = 0
	o.recState = RecIdle
	o.stage = StageInterviewing
	o.generation++
	o.acquireStreamLocked(ctx)
	return nil
}

// GoToQuestion moves to question i. Refused while a recording or
// transcription is in flight.
func (o *Orchestrator) GoToQuestion(ctx context.Context, i int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.goToLocked(ctx, i)
}

// Next moves to the following question.
func (o *Orchestrator) Next(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.goToLocked(ctx, o.index+1)
}

// Prev moves to the preceding question.
func (o *Orchestrator) Prev(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.goToLocked(ctx, o.index-1)
}

func (o *Orchestrator) goToLocked(ctx context.Context, i int) error {
	if o.closed {
		return ErrClosed
	}
	if o.stage != StageInterviewing {
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	if o.recState == RecRecording || o.recState == RecProcessing {
		o.notifier.Notify("Stop the current recording before moving to another question.")
		return ErrRecorderBusy
	}
	if i < 0 || i >= len(o.answers) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if i == o.index {
		return nil
	}
	o.rearmLocked(ctx, i)
	return nil
}

// rearmLocked tears down the active recording session and arms a fresh one
// for question i. The device stream is released and reacquired so each
// question starts from a clean device binding.
func (o *Orchestrator) rearmLocked(ctx context.Context, i int) {
	o.closeStreamLocked()
	o.generation++
	o.index = i
	if o.answers[i].Text != "" {
		o.recState = RecDone
	} else {
		o.recState = RecIdle
	}
	o.acquireStreamLocked(ctx)
}

// acquireStreamLocked opens the device stream for the interviewing stage.
// Failure is non-fatal: the interview continues with typed answers.
func (o *Orchestrator) acquireStreamLocked(ctx context.Context) {
	if o.collab.Capture == nil {
		return
	}
	stream, err := o.collab.Capture.Acquire(ctx, o.streamCfg)
	if err != nil {
		slog.Warn("device acquisition failed, recording unavailable", "err", err)
		o.notifier.Notify("Microphone unavailable. You can type your answers instead.")
		o.stream = nil
		return
	}
	o.stream = stream
	if o.streamCfg.WantVideo && !stream.HasVideo() {
		o.notifier.Notify("Camera unavailable. Continuing with audio only.")
	}
}

// closeStreamLocked releases the device stream and drops any bound recorder.
func (o *Orchestrator) closeStreamLocked() {
	if o.stream == nil {
		return
	}
	if err := o.stream.Close(); err != nil {
		slog.Warn("close capture stream", "err", err)
	}
	o.stream = nil
	o.recorder = nil
}

// Snapshot returns a read-only copy of the current session state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Stage:          o.stage,
		JobDescription: o.jobDescription,
		Answers:        slices.Clone(o.answers),
		Index:          o.index,
		Recording:      o.recState,
		HasVideo:       o.stream != nil && o.stream.HasVideo(),
		Score:          o.score,
		FeedbackReport: o.feedbackReport,
		Comparison: flows.Comparison{
			Report:      o.comparison.Report,
			SkillScores: slices.Clone(o.comparison.SkillScores),
		},
	}
}

// Reset abandons the session and returns to the start stage. History written
// by a completed session is unaffected. Any in-flight asynchronous results
// become stale and are discarded on arrival.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	o.closeStreamLocked()
	o.generation++
	o.stage = StageStart
	o.jobDescription = ""
	o.answers = nil
	o.index = 0
	o.recState = RecIdle
	o.score = 0
	o.feedbackReport = ""
	o.comparison = flows.Comparison{}
	return nil
}

// Close releases device resources and renders the orchestrator unusable.
// Safe to call more than once.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	o.generation++
	o.closeStreamLocked()
	return nil
}
