package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinKeywords(t *testing.T) {
	joined := JoinKeywords(" a ", "b", "")
	require.NotNil(t, joined)
	assert.Equal(t, "a, b", *joined)
}

func TestJoinKeywords_AllEmpty(t *testing.T) {
	assert.Nil(t, JoinKeywords("", "  ", ""))
}

func TestJoinKeywords_DropsEmptySlots(t *testing.T) {
	joined := JoinKeywords("", "navigation", "")
	require.NotNil(t, joined)
	assert.Equal(t, "navigation", *joined)
}

func TestSplitKeywords_RoundTrip(t *testing.T) {
	joined := JoinKeywords("a", "b", "")
	slots := SplitKeywords(joined)
	assert.Equal(t, [MaxKeywords]string{"a", "b", ""}, slots)
}

func TestSplitKeywords_Nil(t *testing.T) {
	assert.Equal(t, [MaxKeywords]string{}, SplitKeywords(nil))
}

func TestSplitKeywords_TrimsAndSkipsEmpty(t *testing.T) {
	raw := " flight-path ,, odor "
	slots := SplitKeywords(&raw)
	assert.Equal(t, [MaxKeywords]string{"flight-path", "odor", ""}, slots)
}
