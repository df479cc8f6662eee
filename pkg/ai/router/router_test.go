package router

import (
	"context"
	"testing"
	"unicode/utf8"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/apperror"
	"medichain-be/pkg/rag/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteHelpForBarePrefix(t *testing.T) {
	r := NewRouter(nil, nil, logger.NewNopLogger())

	res, err := r.Execute(context.Background(), "", "/bypass")
	require.NoError(t, err)
	assert.True(t, res.Help)
	assert.Equal(t, ModeBypass, res.Mode)
	assert.Equal(t, session.DefaultID, res.SessionID)
	assert.Contains(t, res.Answer, "/bypass")

	res, err = r.Execute(context.Background(), "s", "/category:treatment")
	require.NoError(t, err)
	assert.True(t, res.Help)
	assert.Contains(t, res.Answer, "/category:treatment")
}

func TestExecuteRejectsEmptyQuery(t *testing.T) {
	r := NewRouter(nil, nil, logger.NewNopLogger())

	_, err := r.Execute(context.Background(), "s", "   ")
	assert.True(t, apperror.IsValidation(err))
}

func TestTruncateLogKeepsRunesWhole(t *testing.T) {
	q := "감기약은 하루에 몇 번 먹어야 하나요?"

	got := truncateLog(q, 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "감기약은 ...", got)
	assert.Equal(t, q, truncateLog(q, 100))
	assert.Equal(t, "abc", truncateLog("abc", 3))
}
