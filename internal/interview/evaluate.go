package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxprep/voxprep/internal/flows"
	"github.com/voxprep/voxprep/internal/history"
)

// Finish ends the interviewing stage and runs the evaluation sequence:
// scoring, then a best-effort comparison against the most recent prior
// session, then the history write. Refused unless every answer has been
// submitted and no recording is in flight.
//
// On scoring failure the orchestrator reverts to the interviewing stage with
// all answers intact and reacquires the device stream. Comparison failure or
// absent history never blocks the transition to feedback.
func (o *Orchestrator) Finish(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.stage != StageInterviewing {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWrongStage, o.stage)
	}
	if o.recState == RecRecording || o.recState == RecProcessing {
		o.mu.Unlock()
		o.notifier.Notify("Stop the current recording before finishing the interview.")
		return ErrRecorderBusy
	}
	if !o.allSubmittedLocked() {
		o.mu.Unlock()
		o.notifier.Notify("Submit every answer before finishing the interview.")
		return ErrNotAllSubmitted
	}

	o.stage = StageEvaluating
	o.closeStreamLocked()
	o.generation++
	gen := o.generation
	jd := o.jobDescription
	transcript := buildTranscript(o.answers)
	recordAnswers := make([]history.Answer, len(o.answers))
	for i, a := range o.answers {
		recordAnswers[i] = history.Answer{Question: a.Question, Answer: a.Text}
	}
	o.mu.Unlock()

	start := time.Now()
	eval, err := o.collab.Evaluator.Evaluate(ctx, jd, transcript)
	o.metrics.EvaluationDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordCollaboratorRequest(ctx, "evaluation", "error")
		o.metrics.RecordCollaboratorError(ctx, "evaluation")
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.closed || o.generation != gen {
			return nil
		}
		o.stage = StageInterviewing
		o.generation++
		o.acquireStreamLocked(ctx)
		o.notifier.Notify("Evaluation failed. Your answers are unchanged; please try again.")
		return fmt.Errorf("interview: evaluate: %w", err)
	}
	o.metrics.RecordCollaboratorRequest(ctx, "evaluation", "ok")

	// A reset or close while scoring was in flight abandons the session.
	// Bail out before the comparison and history write so the abandoned
	// session leaves no record behind.
	o.mu.Lock()
	if o.closed || o.generation != gen {
		o.mu.Unlock()
		slog.Debug("discarding stale evaluation result", "generation", gen)
		return nil
	}
	o.mu.Unlock()

	// Comparison is attempted only when a prior session exists, and its
	// failure degrades to an empty comparison section.
	var comparison flows.Comparison
	records, histErr := o.collab.History.Load()
	if histErr != nil {
		slog.Warn("load interview history", "err", histErr)
	}
	if len(records) > 0 {
		prev := records[0]
		cstart := time.Now()
		cmp, cmpErr := o.collab.Comparator.Compare(ctx,
			flows.InterviewSummary{
				JobDescription: prev.JobDescription,
				Transcript:     prev.Transcript,
				Score:          prev.Score,
			},
			flows.InterviewSummary{
				JobDescription: jd,
				Transcript:     transcript,
				Score:          eval.Score,
			},
		)
		o.metrics.ComparisonDuration.Record(ctx, time.Since(cstart).Seconds())
		if cmpErr != nil {
			o.metrics.RecordCollaboratorRequest(ctx, "comparison", "error")
			o.metrics.RecordCollaboratorError(ctx, "comparison")
			slog.Warn("comparison failed, continuing without it", "err", cmpErr)
		} else {
			o.metrics.RecordCollaboratorRequest(ctx, "comparison", "ok")
			comparison = cmp
		}
	}

	record := history.NewRecord(jd, transcript, eval.FeedbackReport, eval.Score, recordAnswers)
	if saveErr := o.collab.History.Save(history.Insert(records, record)); saveErr != nil {
		slog.Error("save interview history", "err", saveErr)
		o.notifier.Notify("Could not save this session to history.")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.generation != gen {
		return nil
	}
	o.score = eval.Score
	o.feedbackReport = eval.FeedbackReport
	o.comparison = comparison
	o.stage = StageFeedback
	o.metrics.SessionsCompleted.Add(ctx, 1)
	return nil
}

// buildTranscript renders the canonical transcript: one templated block per
// answer, in question order, separated by a blank line.
func buildTranscript(answers []Answer) string {
	parts := make([]string, len(answers))
	for i, a := range answers {
		parts[i] = fmt.Sprintf("Question: %s\nAnswer: %s", a.Question, a.Text)
	}
	return strings.Join(parts, "\n\n")
}
