package repl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer/inference/forward"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
)

func newSession() (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	return NewSession(forward.New(), nil, &out), &out
}

func TestFactsRulesAndGoals(t *testing.T) {
	ctx := context.Background()
	s, out := newSession()

	for _, line := range []string{
		"Rain(today).",
		"Rain(x) => Wet(x)",
		"# comments are ignored",
		"? Wet(today).",
	} {
		require.NoError(t, s.Exec(ctx, line), line)
	}
	assert.Contains(t, out.String(), "fact 1: Rain(today)")
	assert.Contains(t, out.String(), "rule 0: Rain(x) => Wet(x)")
	assert.Contains(t, out.String(), "yes {}  (rounds=1)")

	// The proving round was not merged, so Wet(today) is derived again.
	out.Reset()
	require.NoError(t, s.Exec(ctx, "? Dry(today)"))
	assert.Contains(t, out.String(), "no  (rounds=2)")
	assert.Len(t, s.KnowledgeBase().Facts, 2, "derived facts accumulate in the live knowledge base")
}

func TestDuplicateFactIsReported(t *testing.T) {
	ctx := context.Background()
	s, out := newSession()
	require.NoError(t, s.Exec(ctx, "Rain(today)."))
	require.NoError(t, s.Exec(ctx, "Rain(today)."))
	assert.Contains(t, out.String(), "already known: Rain(today)")
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	s, out := newSession()
	require.NoError(t, s.Exec(ctx, "Rain(today)."))
	require.NoError(t, s.Exec(ctx, "Rain(x) => Wet(x)."))

	out.Reset()
	require.NoError(t, s.Exec(ctx, ":facts"))
	assert.Contains(t, out.String(), "Rain(today)")

	out.Reset()
	require.NoError(t, s.Exec(ctx, ":rules"))
	assert.Contains(t, out.String(), "Rain(x) => Wet(x)")

	require.NoError(t, s.Exec(ctx, ":reset"))
	assert.Empty(t, s.KnowledgeBase().Facts)

	out.Reset()
	require.NoError(t, s.Exec(ctx, ":help"))
	assert.True(t, strings.HasPrefix(out.String(), "Statements:"))

	assert.ErrorIs(t, s.Exec(ctx, ":quit"), ErrQuit)
	assert.ErrorIs(t, s.Exec(ctx, ":frobnicate"), internalerr.ErrInvalidInput)
	assert.ErrorIs(t, s.Exec(ctx, "A(x) ^ B(x)."), internalerr.ErrInvalidInput)
}

func TestLoadCommand(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rain.kb")
	require.NoError(t, os.WriteFile(path, []byte("Rain(today).\nRain(x) => Wet(x).\n"), 0o644))

	s, out := newSession()
	require.NoError(t, s.Exec(ctx, "Rain(today)."))
	require.NoError(t, s.Exec(ctx, ":load "+path))
	assert.Contains(t, out.String(), "loaded 0 facts, 1 rules")

	out.Reset()
	require.NoError(t, s.Exec(ctx, "? Wet(today)."))
	assert.Contains(t, out.String(), "yes")

	assert.ErrorIs(t, s.Exec(ctx, ":load"), internalerr.ErrInvalidInput)
}
