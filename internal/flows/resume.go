package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voxprep/voxprep/pkg/provider/llm"
)

const resumeSystemPrompt = `You are an expert career coach and professional resume writer. Your task is to analyze a resume and provide an "ATS Score" (Applicant Tracking System Score) out of 100.

First, carefully review the user's Resume.

Then, calculate the ATS Score based on the following criteria:
- **Impact & Action Verbs (40%):** How well does the resume use strong action verbs and quantify achievements?
- **Clarity & Readability (30%):** How clear, concise, and well-structured is the resume? Is it easy to read and understand?
- **Completeness & Professionalism (30%):** Does the resume contain all necessary sections (e.g., Experience, Education, Skills)? Is it free of grammatical errors and typos?

After determining the score, generate a detailed report. The report must be structured with the following headings, and each point, suggestion, or observation must be on a new line:

**1. Strengths:**
- Highlight 2-3 key areas where the resume is strong.

**2. Areas for Improvement:**
- Identify 2-3 specific weaknesses or gaps in the resume.

**3. Actionable Suggestions:**
- Provide a numbered list of concrete, actionable tips on how to improve the resume.

Provide a fair but critical assessment to help the user improve their chances of getting an interview.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "score": <number between 0 and 100>,
  "report": "<full analysis report>"
}`

// ResumeGrade is the outcome of grading a resume.
type ResumeGrade struct {
	// Score is the ATS score in [0, 100].
	Score float64

	// Report is the full analysis text.
	Report string
}

// ResumeFlow grades a resume text against general ATS criteria.
// Safe for concurrent use.
type ResumeFlow struct {
	llm llm.Provider
}

// NewResumeFlow returns a ResumeFlow backed by the given provider.
func NewResumeFlow(provider llm.Provider) *ResumeFlow {
	return &ResumeFlow{llm: provider}
}

// Grade submits the resume text for scoring.
func (f *ResumeFlow) Grade(ctx context.Context, resumeText string) (ResumeGrade, error) {
	if resumeText == "" {
		return ResumeGrade{}, errors.New("flows: resume text must not be empty")
	}

	resp, err := f.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: resumeSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf("Resume Text:\n%s", resumeText)},
		},
	})
	if err != nil {
		return ResumeGrade{}, fmt.Errorf("flows: grade resume: %w", err)
	}

	var parsed struct {
		Score  float64 `json:"score"`
		Report string  `json:"report"`
	}
	if err := json.Unmarshal([]byte(stripMarkdown(resp.Content)), &parsed); err != nil {
		return ResumeGrade{}, fmt.Errorf("flows: parse resume response: %w", err)
	}
	if parsed.Report == "" {
		return ResumeGrade{}, errors.New("flows: resume response missing report")
	}

	return ResumeGrade{
		Score:  clamp(parsed.Score, 0, 100),
		Report: parsed.Report,
	}, nil
}
