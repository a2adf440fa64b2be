package services

import "strings"

// SummarizeFunc turns source text into a summary. Implementations must be
// pure (no I/O) so the placeholder below can later be swapped for a real
// model call without touching the store.
type SummarizeFunc func(text string) string

const (
	// summaryHeader prefixes every generated summary.
	summaryHeader = "[Auto summary (draft)]\n"

	// noSourceText is returned when there is nothing to summarize.
	noSourceText = "No source text to summarize."

	// summaryMaxChars caps the summary body before the ellipsis is appended.
	summaryMaxChars = 400
)

// AiSummary is the placeholder summarizer: it normalizes line endings,
// collapses doubled newlines, and trims the text to summaryMaxChars
// characters. A stand-in, not real summarization.
func AiSummary(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return noSourceText
	}

	trimmed := strings.ReplaceAll(text, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\n\n", "\n")

	if runes := []rune(trimmed); len(runes) > summaryMaxChars {
		trimmed = string(runes[:summaryMaxChars]) + "..."
	}

	return summaryHeader + trimmed
}
