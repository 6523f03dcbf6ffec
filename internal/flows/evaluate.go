package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voxprep/voxprep/pkg/provider/llm"
)

// evaluationReserveTokens is headroom kept free in the context window for
// the model's feedback report.
const evaluationReserveTokens = 2048

const evaluateSystemPrompt = `You are an expert interview evaluator and career coach. Your task is to analyze an interview transcript, which includes analysis from the user's video and audio, based on the provided job description.

First, provide an overall score for the interview on a scale of 1 to 10, where 1 is poor and 10 is excellent. Be critical and fair in your assessment.

Then, provide a comprehensive feedback report. Structure your feedback with clear headings and bullet points for each section to make it easy to read. Each point, suggestion, or observation must be on a new line. The report must cover the following areas:

**1. Clarity and Conciseness:**
- Assess how clear and to-the-point the answers were.
- Provide specific examples from the transcript.

**2. Confidence and Body Language:**
- Analyze posture, eye contact, and gestures based on the video analysis.
- Comment on the candidate's perceived confidence level.

**3. Speaking Skills:**
- Evaluate the pace, tone, and use of filler words (e.g., "um," "uh") from the audio analysis.

**4. Relevance to Job Description:**
- Analyze how well the answers aligned with the skills and experience requested in the job description.

**5. Strengths & Weaknesses:**
- Provide a bulleted list of key strengths.
- Provide a bulleted list of areas for improvement.

**6. Actionable Advice:**
- Offer specific, actionable tips for improvement. Present these as a numbered list. Each tip should be on a new line.

Provide the feedback in a detailed, constructive, and encouraging report. Ensure the entire report is well-formatted and easy to scan.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "score": <number between 0 and 10>,
  "feedbackReport": "<full feedback report>"
}`

// Evaluation is the scored outcome of a completed interview.
type Evaluation struct {
	// Score is the overall performance score in [0, 10].
	Score float64

	// FeedbackReport is the full structured feedback text.
	FeedbackReport string
}

// ErrTranscriptTooLong is returned when the interview transcript cannot fit
// in the model's context window together with the response headroom.
var ErrTranscriptTooLong = errors.New("flows: transcript exceeds model context window")

// EvaluateFlow scores a finished interview against its job description.
// Safe for concurrent use.
type EvaluateFlow struct {
	llm llm.Provider
}

// NewEvaluateFlow returns an EvaluateFlow backed by the given provider.
func NewEvaluateFlow(provider llm.Provider) *EvaluateFlow {
	return &EvaluateFlow{llm: provider}
}

// Evaluate submits the transcript for scoring. It fails fast with
// ErrTranscriptTooLong when the prompt cannot fit the model's context window.
func (f *EvaluateFlow) Evaluate(ctx context.Context, jobDescription, transcript string) (Evaluation, error) {
	if transcript == "" {
		return Evaluation{}, errors.New("flows: transcript must not be empty")
	}

	userMsg := fmt.Sprintf("Job Description: %s\n\nInterview Transcript and Analysis: %s", jobDescription, transcript)
	messages := []llm.Message{
		{Role: "system", Content: evaluateSystemPrompt},
		{Role: "user", Content: userMsg},
	}

	tokens, err := f.llm.CountTokens(messages)
	if err != nil {
		return Evaluation{}, fmt.Errorf("flows: count evaluation tokens: %w", err)
	}
	if window := f.llm.Capabilities().ContextWindow; window > 0 && tokens+evaluationReserveTokens > window {
		return Evaluation{}, fmt.Errorf("%w: %d tokens, window %d", ErrTranscriptTooLong, tokens, window)
	}

	resp, err := f.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: evaluateSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: userMsg},
		},
	})
	if err != nil {
		return Evaluation{}, fmt.Errorf("flows: evaluate interview: %w", err)
	}

	var parsed struct {
		Score          float64 `json:"score"`
		FeedbackReport string  `json:"feedbackReport"`
	}
	if err := json.Unmarshal([]byte(stripMarkdown(resp.Content)), &parsed); err != nil {
		return Evaluation{}, fmt.Errorf("flows: parse evaluation response: %w", err)
	}
	if parsed.FeedbackReport == "" {
		return Evaluation{}, errors.New("flows: evaluation response missing feedback report")
	}

	return Evaluation{
		Score:          clamp(parsed.Score, 0, 10),
		FeedbackReport: parsed.FeedbackReport,
	}, nil
}
