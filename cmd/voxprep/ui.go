package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/voxprep/voxprep/internal/history"
	"github.com/voxprep/voxprep/internal/interview"
)

const helpText = `Commands:
  start <job description>   generate questions and begin the interview
  record                    start recording an answer for the current question
  stop                      stop recording and transcribe the answer
  rerecord                  discard the current answer and record again
  edit <text>               type or replace the current answer
  submit                    confirm the current answer and advance
  next / prev / goto <n>    move between questions
  show                      print the current session state
  finish                    submit the interview for scoring
  history                   list past interview scores
  new                       discard the session and start over
  help                      show this help
  quit                      exit`

// runUI drives the orchestrator with a line-based command loop. It returns
// when the input ends, the user quits, or ctx is cancelled between commands.
func runUI(ctx context.Context, orch *interview.Orchestrator, store history.Store, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "voxprep: mock interview coach. Type 'help' for commands.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(out, "voxprep> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		var err error
		switch cmd {
		case "help":
			fmt.Fprintln(out, helpText)
		case "start":
			err = cmdStart(ctx, orch, rest, scanner, out)
		case "record":
			err = orch.StartRecording()
			if err == nil {
				fmt.Fprintln(out, "Recording... type 'stop' when you are done answering.")
			}
		case "stop":
			err = cmdStop(ctx, orch, out)
		case "rerecord":
			err = orch.ResetRecording()
		case "edit":
			err = orch.EditAnswer(rest)
		case "submit":
			err = orch.SubmitAnswer(ctx)
			if err == nil {
				render(out, orch.Snapshot())
			}
		case "next":
			err = orch.Next(ctx)
			if err == nil {
				render(out, orch.Snapshot())
			}
		case "prev":
			err = orch.Prev(ctx)
			if err == nil {
				render(out, orch.Snapshot())
			}
		case "goto":
			var n int
			n, err = strconv.Atoi(rest)
			if err != nil {
				err = fmt.Errorf("goto needs a question number: %w", err)
				break
			}
			err = orch.GoToQuestion(ctx, n-1)
			if err == nil {
				render(out, orch.Snapshot())
			}
		case "show":
			render(out, orch.Snapshot())
		case "finish":
			fmt.Fprintln(out, "Evaluating your interview...")
			err = orch.Finish(ctx)
			if err == nil {
				render(out, orch.Snapshot())
			}
		case "history":
			err = cmdHistory(store, out)
		case "new":
			err = orch.Reset()
			if err == nil {
				fmt.Fprintln(out, "Session cleared. Use 'start <job description>' to begin a new interview.")
			}
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "Unknown command %q. Type 'help' for commands.\n", cmd)
		}

		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func cmdStart(ctx context.Context, orch *interview.Orchestrator, jd string, scanner *bufio.Scanner, out io.Writer) error {
	if jd == "" {
		fmt.Fprint(out, "Paste the job description on one line: ")
		if !scanner.Scan() {
			return errors.New("no job description entered")
		}
		jd = strings.TrimSpace(scanner.Text())
	}

	fmt.Fprintln(out, "Generating interview questions...")
	if err := orch.Begin(ctx, jd); err != nil {
		return err
	}
	render(out, orch.Snapshot())
	return nil
}

// cmdStop stops the recording and waits for the transcript, since the next
// sensible command depends on it.
func cmdStop(ctx context.Context, orch *interview.Orchestrator, out io.Writer) error {
	if err := orch.StopRecording(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Transcribing...")

	for orch.Snapshot().Recording == interview.RecProcessing {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	snap := orch.Snapshot()
	if snap.Recording == interview.RecDone {
		fmt.Fprintf(out, "Transcript: %s\n", snap.Answers[snap.Index].Text)
		fmt.Fprintln(out, "Use 'edit <text>' to adjust it, 'rerecord' to retry, or 'submit' to confirm.")
	}
	return nil
}

func cmdHistory(store history.Store, out io.Writer) error {
	records, err := store.Load()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No completed interviews yet.")
		return nil
	}
	for i, r := range records {
		fmt.Fprintf(out, "%d. %s  score %.1f/10  %s\n",
			i+1, r.CompletedAt.Local().Format("2006-01-02 15:04"), r.Score, truncate(r.JobDescription, 60))
	}
	return nil
}

// render prints a stage-appropriate view of the session.
func render(out io.Writer, snap interview.Snapshot) {
	switch snap.Stage {
	case interview.StageStart:
		fmt.Fprintln(out, "No session in progress. Use 'start <job description>' to begin.")

	case interview.StageInterviewing:
		fmt.Fprintf(out, "\nQuestion %d of %d", snap.Index+1, len(snap.Answers))
		if snap.HasVideo {
			fmt.Fprint(out, "  [camera on]")
		}
		fmt.Fprintf(out, "\n  %s\n", snap.Question())

		a := snap.Answers[snap.Index]
		switch {
		case snap.Recording == interview.RecRecording:
			fmt.Fprintln(out, "  (recording...)")
		case snap.Recording == interview.RecProcessing:
			fmt.Fprintln(out, "  (transcribing...)")
		case a.Text != "":
			fmt.Fprintf(out, "  Answer: %s\n", a.Text)
		default:
			fmt.Fprintln(out, "  Answer: (none yet, 'record' or 'edit <text>')")
		}

		var submitted int
		for _, ans := range snap.Answers {
			if ans.Submitted {
				submitted++
			}
		}
		fmt.Fprintf(out, "  Submitted %d of %d answers.\n\n", submitted, len(snap.Answers))

	case interview.StageEvaluating:
		fmt.Fprintln(out, "Evaluating...")

	case interview.StageFeedback:
		fmt.Fprintf(out, "\nOverall score: %.1f/10\n\n%s\n", snap.Score, snap.FeedbackReport)
		if snap.Comparison.Report != "" {
			fmt.Fprintf(out, "\nProgress since your last interview:\n%s\n", snap.Comparison.Report)
			for _, s := range snap.Comparison.SkillScores {
				fmt.Fprintf(out, "  %-32s %.1f -> %.1f\n", s.Skill, s.PreviousScore, s.CurrentScore)
			}
		}
		fmt.Fprintln(out, "\nUse 'new' to start another interview or 'quit' to exit.")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
