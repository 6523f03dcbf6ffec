package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voxprep/voxprep/pkg/provider/llm"
)

const compareSystemPrompt = `You are an expert career coach. Your task is to compare two interview performances and provide a constructive analysis of the user's progress.

First, analyze both interviews and assign a score (from 1 to 10) for each of the following three skills for both the previous and current interviews:
1.  **Clarity & Conciseness:** How clear and to-the-point the answers were.
2.  **Confidence & Communication:** Assess posture, eye contact, gestures, pace, tone, and use of filler words.
3.  **Relevance to Job Description:** How well the answers aligned with the skills and experience requested in the job description.

Next, provide a comparison report that covers the following points:
1.  **Overall Score Change:** Comment on the change in the overall score.
2.  **Key Improvements:** Identify specific areas where the user has shown clear improvement between the two interviews. Use examples from the transcripts and reference the skill scores.
3.  **Areas for Continued Focus:** Point out any areas that still need work, or new issues that may have appeared in the current interview.
4.  **Actionable Advice:** Based on the comparison, provide 1-2 key actionable tips for the user to focus on for their next interview.

Keep the tone encouraging and constructive. Format the report as a concise report.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "comparisonReport": "<full comparison report>",
  "skillScores": [
    {"skill": "Clarity & Conciseness", "previousScore": <0-10>, "currentScore": <0-10>},
    {"skill": "Confidence & Communication", "previousScore": <0-10>, "currentScore": <0-10>},
    {"skill": "Relevance to Job Description", "previousScore": <0-10>, "currentScore": <0-10>}
  ]
}`

// InterviewSummary is one side of a comparison.
type InterviewSummary struct {
	JobDescription string
	Transcript     string
	Score          float64
}

// SkillScore is a per-skill before/after pair from a comparison.
type SkillScore struct {
	Skill         string  `json:"skill"`
	PreviousScore float64 `json:"previousScore"`
	CurrentScore  float64 `json:"currentScore"`
}

// Comparison is the outcome of comparing two interviews.
type Comparison struct {
	Report      string
	SkillScores []SkillScore
}

// CompareFlow analyses progress between two scored interviews.
// Safe for concurrent use.
type CompareFlow struct {
	llm llm.Provider
}

// NewCompareFlow returns a CompareFlow backed by the given provider.
func NewCompareFlow(provider llm.Provider) *CompareFlow {
	return &CompareFlow{llm: provider}
}

// Compare submits the previous and current interviews for progress analysis.
func (f *CompareFlow) Compare(ctx context.Context, previous, current InterviewSummary) (Comparison, error) {
	if previous.Transcript == "" || current.Transcript == "" {
		return Comparison{}, errors.New("flows: both transcripts must be non-empty")
	}

	userMsg := fmt.Sprintf(`Here is the data for the two interviews:

**Previous Interview:**
- Score: %.1f/10
- Job Description: %s
- Transcript:
%s

**Current Interview:**
- Score: %.1f/10
- Job Description: %s
- Transcript:
%s`,
		previous.Score, previous.JobDescription, previous.Transcript,
		current.Score, current.JobDescription, current.Transcript,
	)

	resp, err := f.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: compareSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: userMsg},
		},
	})
	if err != nil {
		return Comparison{}, fmt.Errorf("flows: compare interviews: %w", err)
	}

	var parsed struct {
		ComparisonReport string       `json:"comparisonReport"`
		SkillScores      []SkillScore `json:"skillScores"`
	}
	if err := json.Unmarshal([]byte(stripMarkdown(resp.Content)), &parsed); err != nil {
		return Comparison{}, fmt.Errorf("flows: parse comparison response: %w", err)
	}
	if parsed.ComparisonReport == "" {
		return Comparison{}, errors.New("flows: comparison response missing report")
	}

	for i := range parsed.SkillScores {
		parsed.SkillScores[i].PreviousScore = clamp(parsed.SkillScores[i].PreviousScore, 0, 10)
		parsed.SkillScores[i].CurrentScore = clamp(parsed.SkillScores[i].CurrentScore, 0, 10)
	}

	return Comparison{
		Report:      parsed.ComparisonReport,
		SkillScores: parsed.SkillScores,
	}, nil
}
