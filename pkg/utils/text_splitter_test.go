package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitTextShortInput(t *testing.T) {
	assert.Equal(t, []string{"fever"}, SplitText("fever", 100, 10))
	assert.Nil(t, SplitText("", 100, 10))
}

func TestSplitTextBreaksOnWhitespace(t *testing.T) {
	text := "aaaa bbbb cccc dddd"
	chunks := SplitText(text, 10, 0)

	assert.Equal(t, []string{"aaaa bbbb", " cccc dddd"}, chunks)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitTextOverlap(t *testing.T) {
	chunks := SplitText(strings.Repeat("x", 25), 10, 5)

	assert.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.Len(t, c, 10)
	}
}
