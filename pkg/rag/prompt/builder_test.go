package prompt

import (
	"strings"
	"testing"

	"medichain-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

func TestBuildClassifierPrompt(t *testing.T) {
	p := BuildClassifierPrompt("what is the common cold?", []Example{
		{Text: "cold medicine dosage", Label: "medicine", Score: 0.82},
		{Text: "how is flu treated", Label: "treatment", Score: 0.61},
	}, []string{"medicine", "treatment", "assist_answer"})

	assert.Contains(t, p, "exactly ONE of the following 3 categories")
	assert.Contains(t, p, "- assist_answer\n")
	assert.Contains(t, p, "Example 1:\nText: \"cold medicine dosage\"\nCategory: medicine")
	assert.Contains(t, p, "Example 2:")
	assert.True(t, strings.HasSuffix(p, "Category:"))
}

func TestBuildSpecialistPromptGrounded(t *testing.T) {
	p := BuildSpecialistPrompt("what is the common cold?", "The common cold is a viral infection.")
	assert.Contains(t, p, "The common cold is a viral infection.")
	assert.Contains(t, p, "Ground the answer")
	assert.NotContains(t, p, "No reference documents")
	assert.Contains(t, p, "off topic")
}

func TestBuildSpecialistPromptUngrounded(t *testing.T) {
	p := BuildSpecialistPrompt("what is the common cold?", "  ")
	assert.Contains(t, p, "No reference documents were found")
	assert.NotContains(t, p, "Ground the answer")
	assert.Contains(t, p, "off topic")
}

func TestBuildFinalizerMessage(t *testing.T) {
	assert.Equal(t,
		"[User question]\nq\n\n[Specialist draft]\n\n\n[Final answer]",
		BuildFinalizerMessage("q", ""))
}

func TestBuildSummaryPrompt(t *testing.T) {
	p := BuildSummaryPrompt([]store.Turn{
		{Role: store.RoleUser, Text: "fever?"},
		{Role: store.RoleAssistant, Text: "rest and fluids"},
	}, 5)
	assert.Contains(t, p, "Q: fever?\nA: rest and fluids\n")
	assert.Contains(t, p, "at most 5 lines")
}

func TestFinalizerSystemPromptCarriesNotice(t *testing.T) {
	assert.Contains(t, FinalizerSystemPrompt, OffTopicNotice)
}
