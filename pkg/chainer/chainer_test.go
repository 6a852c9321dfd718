package chainer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chainer/pkg/chainer/config"
	"github.com/cognicore/chainer/pkg/chainer/inference/forward"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/report"
	"github.com/cognicore/chainer/pkg/chainer/store/sqlite"
)

func TestShippedKnowledgeBasesAreProven(t *testing.T) {
	ctx := context.Background()
	c := New(Options{})
	defer c.Close()

	for _, file := range []string{"award.kb", "bijective.kb", "squeeze.kb", "pollution.yaml"} {
		t.Run(file, func(t *testing.T) {
			kbf, err := config.LoadKnowledgeBase(filepath.Join("testdata", file))
			require.NoError(t, err)
			require.True(t, kbf.HasGoal())

			require.NoError(t, c.Load(ctx, kbf.Name, kbf.KB))
			r, err := c.Ask(ctx, kbf.Name, kbf.Goal)
			require.NoError(t, err)
			assert.Equal(t, report.OutcomeProven, r.Outcome)
			assert.LessOrEqual(t, r.Rounds, len(kbf.KB.Rules)+1)
		})
	}
}

func TestAskLeavesStoredKnowledgeBaseUnchanged(t *testing.T) {
	ctx := context.Background()
	c := New(Options{})
	defer c.Close()

	kbf, err := config.LoadKnowledgeBase(filepath.Join("testdata", "award.kb"))
	require.NoError(t, err)
	require.NoError(t, c.Load(ctx, "award", kbf.KB))

	_, err = c.AskQuery(ctx, "award", "? Leader(P).")
	require.NoError(t, err)

	infos, err := c.KnowledgeBases(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 3, infos[0].Facts)
}

func TestAwardFlipsWithoutLeadership(t *testing.T) {
	ctx := context.Background()
	c := New(Options{})
	defer c.Close()

	_, err := c.LoadSource(ctx, "award", `
HasExcellentPerformance(P).
ParticipatesInCommunityService(P).
HasExcellentPerformance(P) => AcademicallyQualified(P).
ParticipatesInCommunityService(P) => CommunityEngaged(P).
DemonstratesLeadership(P) => Leader(P).
AcademicallyQualified(P) ^ CommunityEngaged(P) ^ Leader(P) => EligibleForAward(P).
`)
	require.NoError(t, err)

	r, err := c.AskQuery(ctx, "award", "EligibleForAward(P)")
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeNotDerivable, r.Outcome)
	assert.False(t, r.Proven())
}

func TestRunsArePersisted(t *testing.T) {
	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, filepath.Join(t.TempDir(), "chainer.db"))
	require.NoError(t, err)

	c := New(Options{Store: st, Inference: forward.New(forward.WithStrategy(forward.MatchIndependent))})
	defer c.Close()

	_, err = c.LoadSource(ctx, "rain", "Rain(today).\nRain(x) => Wet(x).")
	require.NoError(t, err)

	first, err := c.AskQuery(ctx, "rain", "Wet(today)")
	require.NoError(t, err)
	second, err := c.AskQuery(ctx, "rain", "Dry(today)")
	require.NoError(t, err)

	runs, err := c.Runs(ctx, "rain", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, report.OutcomeNotDerivable, runs[0].Outcome)
	assert.Equal(t, "forward/independent", runs[1].Engine)

	got, err := c.Run(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Proven())
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "Wet(today)", got.Steps[0].Fact)
}

func TestAskErrors(t *testing.T) {
	ctx := context.Background()
	c := New(Options{})
	defer c.Close()

	_, err := c.Ask(ctx, "missing", logic.Pred("G"))
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))

	_, err = c.AskQuery(ctx, "missing", "? (")
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	_, err = c.LoadSource(ctx, "dup", "A(x).\nA(x).")
	assert.Error(t, err)
}
