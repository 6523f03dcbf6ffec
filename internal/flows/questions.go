package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/voxprep/voxprep/pkg/provider/llm"
)

// DefaultQuestionCount is the number of questions generated when the caller
// does not ask for a specific count.
const DefaultQuestionCount = 5

const questionSystemPrompt = `You are an expert interview question generator. Given a job description, you will generate a list of interview questions that are relevant to the role.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "questions": ["<question 1>", "<question 2>", ...]
}

Generate exactly the requested number of questions.`

// QuestionFlow generates interview questions tailored to a job description.
// Safe for concurrent use.
type QuestionFlow struct {
	llm         llm.Provider
	temperature float64
}

// QuestionOption is a functional option for configuring a QuestionFlow.
type QuestionOption func(*QuestionFlow)

// WithQuestionTemperature sets the sampling temperature. Question generation
// benefits from variety, so the default is 1.0.
func WithQuestionTemperature(temp float64) QuestionOption {
	return func(f *QuestionFlow) {
		f.temperature = temp
	}
}

// NewQuestionFlow returns a QuestionFlow backed by the given provider.
func NewQuestionFlow(provider llm.Provider, opts ...QuestionOption) *QuestionFlow {
	f := &QuestionFlow{
		llm:         provider,
		temperature: 1.0,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Generate produces count interview questions for the given job description.
// count values below 1 fall back to DefaultQuestionCount.
func (f *QuestionFlow) Generate(ctx context.Context, jobDescription string, count int) ([]string, error) {
	if jobDescription == "" {
		return nil, errors.New("flows: job description must not be empty")
	}
	if count < 1 {
		count = DefaultQuestionCount
	}

	userMsg := fmt.Sprintf("Job Description: %s\n\nNumber of Questions: %d", jobDescription, count)

	resp, err := f.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: questionSystemPrompt,
		Temperature:  f.temperature,
		Messages: []llm.Message{
			{Role: "user", Content: userMsg},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("flows: generate questions: %w", err)
	}

	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripMarkdown(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("flows: parse question response: %w", err)
	}
	if len(parsed.Questions) == 0 {
		return nil, errors.New("flows: model returned no questions")
	}

	// Models occasionally over- or under-deliver; trim the excess but accept
	// a short list rather than retrying.
	if len(parsed.Questions) > count {
		parsed.Questions = parsed.Questions[:count]
	}
	return parsed.Questions, nil
}
