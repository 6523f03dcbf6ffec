// Package flows implements the AI collaborators of the interview coach on
// top of an [llm.Provider].
//
// Each flow is a single prompt/response exchange: the model is instructed to
// respond with a strict JSON object, the response is stripped of markdown
// code fences and unmarshalled, and numeric fields are clamped to their
// documented ranges. Parse failures surface as errors; the orchestrator
// decides which flows are best-effort.
package flows

import "strings"

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

// clamp limits v to the inclusive range [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
