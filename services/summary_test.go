package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAiSummary_EmptyInput(t *testing.T) {
	assert.Equal(t, noSourceText, AiSummary(""))
	assert.Equal(t, noSourceText, AiSummary("   \n\t  "))
}

func TestAiSummary_ShortTextPassesThrough(t *testing.T) {
	got := AiSummary("A short abstract.")
	assert.Equal(t, summaryHeader+"A short abstract.", got)
}

func TestAiSummary_TruncatesLongText(t *testing.T) {
	text := strings.Repeat("a", 500)
	got := AiSummary(text)

	assert.Equal(t, summaryHeader+strings.Repeat("a", 400)+"...", got)
}

func TestAiSummary_NormalizesLineEndings(t *testing.T) {
	got := AiSummary("first\r\nsecond\n\nthird")
	assert.Equal(t, summaryHeader+"first\nsecond\nthird", got)
}

func TestAiSummary_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("あ", 401)
	got := AiSummary(text)

	assert.Equal(t, summaryHeader+strings.Repeat("あ", 400)+"...", got)
}
