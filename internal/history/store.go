// Package history persists completed interview sessions locally.
//
// The history is a small newest-first list capped at MaxRecords entries,
// mirroring a coaching workflow where only the last handful of sessions
// matter for progress comparison. Records are immutable once written.
package history

import (
	"time"

	"github.com/google/uuid"
)

// MaxRecords is the maximum number of interview records retained. Inserting
// beyond this drops the oldest entries.
const MaxRecords = 5

// Answer is one question/answer pair from a completed interview.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Record is a single completed interview session.
type Record struct {
	ID             string    `json:"id"`
	JobDescription string    `json:"job_description"`
	Transcript     string    `json:"transcript"`
	FeedbackReport string    `json:"feedback_report"`
	Score          float64   `json:"score"`
	Answers        []Answer  `json:"answers"`
	CompletedAt    time.Time `json:"completed_at"`
}

// NewRecord builds a Record with a fresh ID and the current UTC timestamp.
func NewRecord(jobDescription, transcript, feedbackReport string, score float64, answers []Answer) Record {
	return Record{
		ID:             uuid.NewString(),
		JobDescription: jobDescription,
		Transcript:     transcript,
		FeedbackReport: feedbackReport,
		Score:          score,
		Answers:        answers,
		CompletedAt:    time.Now().UTC(),
	}
}

// Store loads and saves the interview history list. The list is always
// ordered newest-first and holds at most MaxRecords entries.
type Store interface {
	// Load returns the stored records, newest first. A missing history is
	// not an error; it yields an empty slice.
	Load() ([]Record, error)

	// Save replaces the stored history with the given records.
	Save(records []Record) error
}

// Insert prepends record to records and trims the result to MaxRecords.
// The input slice is not modified.
func Insert(records []Record, record Record) []Record {
	out := make([]Record, 0, len(records)+1)
	out = append(out, record)
	out = append(out, records...)
	if len(out) > MaxRecords {
		out = out[:MaxRecords]
	}
	return out
}
