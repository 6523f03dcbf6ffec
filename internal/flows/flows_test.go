package flows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxprep/voxprep/pkg/provider/llm"
	llmmock "github.com/voxprep/voxprep/pkg/provider/llm/mock"
)

func completion(content string) *llm.CompletionResponse {
	return &llm.CompletionResponse{Content: content}
}

// ---- shared helpers ---------------------------------------------------------

func TestStripMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := stripMarkdown(tt.in); got != tt.want {
				t.Errorf("stripMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// ---- QuestionFlow -----------------------------------------------------------

func TestQuestionFlow_Generate(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse: completion(`{"questions": ["Tell me about yourself.", "Why this role?"]}`),
	}
	f := NewQuestionFlow(p)

	got, err := f.Generate(context.Background(), "backend engineer", 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != "Tell me about yourself." {
		t.Errorf("questions[0] = %q", got[0])
	}

	if len(p.CompleteCalls) != 1 {
		t.Fatalf("Complete calls = %d, want 1", len(p.CompleteCalls))
	}
	req := p.CompleteCalls[0].Req
	if !strings.Contains(req.Messages[0].Content, "backend engineer") {
		t.Error("prompt missing job description")
	}
	if !strings.Contains(req.Messages[0].Content, "Number of Questions: 2") {
		t.Error("prompt missing question count")
	}
}

func TestQuestionFlow_Generate_DefaultCount(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse: completion(`{"questions": ["q1"]}`),
	}
	f := NewQuestionFlow(p)

	if _, err := f.Generate(context.Background(), "jd", 0); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(p.CompleteCalls[0].Req.Messages[0].Content, "Number of Questions: 5") {
		t.Error("zero count did not fall back to default of 5")
	}
}

func TestQuestionFlow_Generate_TrimsExcessQuestions(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse: completion(`{"questions": ["a", "b", "c", "d"]}`),
	}
	f := NewQuestionFlow(p)

	got, err := f.Generate(context.Background(), "jd", 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestQuestionFlow_Generate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		jd       string
		response *llm.CompletionResponse
		err      error
	}{
		{"empty job description", "", completion(`{"questions":["q"]}`), nil},
		{"provider failure", "jd", nil, errors.New("boom")},
		{"malformed json", "jd", completion("not json"), nil},
		{"empty question list", "jd", completion(`{"questions": []}`), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &llmmock.Provider{CompleteResponse: tt.response, CompleteErr: tt.err}
			f := NewQuestionFlow(p)
			if _, err := f.Generate(context.Background(), tt.jd, 1); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

// ---- EvaluateFlow -----------------------------------------------------------

func TestEvaluateFlow_Evaluate(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse:  completion(`{"score": 7.5, "feedbackReport": "Solid answers overall."}`),
		TokenCount:        500,
		ModelCapabilities: llm.ModelCapabilities{ContextWindow: 128_000},
	}
	f := NewEvaluateFlow(p)

	got, err := f.Evaluate(context.Background(), "jd", "Question: q\nAnswer: a")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Score != 7.5 {
		t.Errorf("Score = %f, want 7.5", got.Score)
	}
	if got.FeedbackReport != "Solid answers overall." {
		t.Errorf("FeedbackReport = %q", got.FeedbackReport)
	}
	if len(p.CountTokensCalls) != 1 {
		t.Errorf("CountTokens calls = %d, want 1", len(p.CountTokensCalls))
	}
}

func TestEvaluateFlow_Evaluate_ClampsScore(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse:  completion(`{"score": 14, "feedbackReport": "r"}`),
		ModelCapabilities: llm.ModelCapabilities{ContextWindow: 128_000},
	}
	f := NewEvaluateFlow(p)

	got, err := f.Evaluate(context.Background(), "jd", "t")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got.Score != 10 {
		t.Errorf("Score = %f, want clamped to 10", got.Score)
	}
}

func TestEvaluateFlow_Evaluate_TranscriptTooLong(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse:  completion(`{"score": 5, "feedbackReport": "r"}`),
		TokenCount:        200_000,
		ModelCapabilities: llm.ModelCapabilities{ContextWindow: 8_192},
	}
	f := NewEvaluateFlow(p)

	_, err := f.Evaluate(context.Background(), "jd", "very long transcript")
	if !errors.Is(err, ErrTranscriptTooLong) {
		t.Fatalf("err = %v, want ErrTranscriptTooLong", err)
	}
	if len(p.CompleteCalls) != 0 {
		t.Error("Complete was called despite budget failure")
	}
}

func TestEvaluateFlow_Evaluate_MissingReport_ReturnsError(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse:  completion(`{"score": 5}`),
		ModelCapabilities: llm.ModelCapabilities{ContextWindow: 128_000},
	}
	f := NewEvaluateFlow(p)

	if _, err := f.Evaluate(context.Background(), "jd", "t"); err == nil {
		t.Fatal("expected error for missing feedback report, got nil")
	}
}

// ---- CompareFlow ------------------------------------------------------------

func TestCompareFlow_Compare(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse: completion("```json\n" + `{
  "comparisonReport": "You improved.",
  "skillScores": [
    {"skill": "Clarity & Conciseness", "previousScore": 5, "currentScore": 7},
    {"skill": "Confidence & Communication", "previousScore": 6, "currentScore": 6},
    {"skill": "Relevance to Job Description", "previousScore": 4, "currentScore": 8}
  ]
}` + "\n```"),
	}
	f := NewCompareFlow(p)

	prev := InterviewSummary{JobDescription: "jd1", Transcript: "t1", Score: 5}
	curr := InterviewSummary{JobDescription: "jd2", Transcript: "t2", Score: 7}

	got, err := f.Compare(context.Background(), prev, curr)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if got.Report != "You improved." {
		t.Errorf("Report = %q", got.Report)
	}
	if len(got.SkillScores) != 3 {
		t.Fatalf("SkillScores len = %d, want 3", len(got.SkillScores))
	}
	if got.SkillScores[0].Skill != "Clarity & Conciseness" {
		t.Errorf("first skill = %q", got.SkillScores[0].Skill)
	}

	prompt := p.CompleteCalls[0].Req.Messages[0].Content
	for _, want := range []string{"t1", "t2", "jd1", "jd2", "5.0/10", "7.0/10"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCompareFlow_Compare_EmptyTranscript_ReturnsError(t *testing.T) {
	t.Parallel()

	f := NewCompareFlow(&llmmock.Provider{})
	_, err := f.Compare(context.Background(), InterviewSummary{Transcript: ""}, InterviewSummary{Transcript: "t"})
	if err == nil {
		t.Fatal("expected error for empty transcript, got nil")
	}
}

func TestCompareFlow_Compare_ClampsSkillScores(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse: completion(`{"comparisonReport": "r", "skillScores": [{"skill": "s", "previousScore": -3, "currentScore": 42}]}`),
	}
	f := NewCompareFlow(p)

	got, err := f.Compare(context.Background(),
		InterviewSummary{Transcript: "a"}, InterviewSummary{Transcript: "b"})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if got.SkillScores[0].PreviousScore != 0 || got.SkillScores[0].CurrentScore != 10 {
		t.Errorf("scores not clamped: %+v", got.SkillScores[0])
	}
}

// ---- ResumeFlow -------------------------------------------------------------

func TestResumeFlow_Grade(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse: completion(`{"score": 82, "report": "Strong resume."}`),
	}
	f := NewResumeFlow(p)

	got, err := f.Grade(context.Background(), "John Doe, Software Engineer...")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Score != 82 {
		t.Errorf("Score = %f, want 82", got.Score)
	}
	if got.Report != "Strong resume." {
		t.Errorf("Report = %q", got.Report)
	}
}

func TestResumeFlow_Grade_EmptyText_ReturnsError(t *testing.T) {
	t.Parallel()

	f := NewResumeFlow(&llmmock.Provider{})
	if _, err := f.Grade(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty resume text, got nil")
	}
}

func TestResumeFlow_Grade_ClampsScore(t *testing.T) {
	t.Parallel()

	p := &llmmock.Provider{
		CompleteResponse: completion(`{"score": 150, "report": "r"}`),
	}
	f := NewResumeFlow(p)

	got, err := f.Grade(context.Background(), "resume")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Score != 100 {
		t.Errorf("Score = %f, want clamped to 100", got.Score)
	}
}
