package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

func openTemp(t *testing.T) (store.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "chainer.db")
	st, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, dbPath
}

func bijective() *logic.KnowledgeBase {
	kb, err := logic.KnowledgeBaseOf([]logic.Predicate{
		logic.Pred("Distinct", "1", "2"),
		logic.Pred("Map", "F", "1", "10"),
		logic.Pred("Map", "F", "2", "20"),
		logic.MustPredicate("Num", []logic.Term{logic.MustPredicate("s", []logic.Term{logic.V("z")})}),
	}, []*logic.Clause{
		logic.Rule(logic.Pred("Surjective", "F"), logic.Pred("Map", "F", "X", "Z")),
		logic.Rule(logic.Pred("Bijective", "F"), logic.Pred("Injective", "F"), logic.Pred("Surjective", "F")),
		logic.Rule(logic.Pred("Always", "x")),
	})
	if err != nil {
		panic(err)
	}
	return kb
}

// TestSchemaCreationIdempotent tests that running initSchema multiple times is safe
func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := initSchema(ctx, db); err != nil {
			t.Fatalf("initSchema iteration %d: %v", i, err)
		}
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	if err != nil {
		t.Fatalf("Count tables: %v", err)
	}
	expected := 5 // knowledge_bases, kb_facts, kb_rules, runs, run_steps
	if count != expected {
		t.Errorf("Expected %d tables, got %d", expected, count)
	}
}

func TestKnowledgeBaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	want := bijective()
	if err := st.SaveKnowledgeBase(ctx, "bijective", want); err != nil {
		t.Fatalf("SaveKnowledgeBase: %v", err)
	}

	got, err := st.LoadKnowledgeBase(ctx, "bijective")
	if err != nil {
		t.Fatalf("LoadKnowledgeBase: %v", err)
	}
	if len(got.Facts) != len(want.Facts) || len(got.Rules) != len(want.Rules) {
		t.Fatalf("got %d facts %d rules", len(got.Facts), len(got.Rules))
	}
	for i := range want.Facts {
		if !got.Facts[i].Equal(want.Facts[i]) {
			t.Errorf("fact %d: got %s want %s", i, got.Facts[i], want.Facts[i])
		}
	}
	for i := range want.Rules {
		if got.Rules[i].String() != want.Rules[i].String() {
			t.Errorf("rule %d: got %s want %s", i, got.Rules[i], want.Rules[i])
		}
	}
}

func TestSaveReplacesKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	if err := st.SaveKnowledgeBase(ctx, "kb", bijective()); err != nil {
		t.Fatal(err)
	}
	small := logic.NewKnowledgeBase()
	_ = small.AddFact(logic.Pred("Rain"))
	if err := st.SaveKnowledgeBase(ctx, "kb", small); err != nil {
		t.Fatal(err)
	}

	infos, err := st.ListKnowledgeBases(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Facts != 1 || infos[0].Rules != 0 {
		t.Fatalf("unexpected infos: %+v", infos)
	}
	if infos[0].UpdatedAt.IsZero() {
		t.Error("expected updated_at")
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	if _, err := st.LoadKnowledgeBase(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.SaveKnowledgeBase(ctx, "kb", bijective()); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteKnowledgeBase(ctx, "kb"); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteKnowledgeBase(ctx, "kb"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.SaveKnowledgeBase(ctx, "", bijective()); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveRejectsUnwritableSymbols(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	for _, name := range []string{"Ana Maria", "ε", "x+y"} {
		kb := logic.NewKnowledgeBase()
		if err := kb.AddFact(logic.Pred("Likes", name)); err != nil {
			t.Fatal(err)
		}
		if err := st.SaveKnowledgeBase(ctx, "likes", kb); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Fatalf("save %q: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if _, err := st.LoadKnowledgeBase(ctx, "likes"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("rejected knowledge base must not be stored, got %v", err)
	}

	kb := logic.NewKnowledgeBase()
	_ = kb.AddFact(logic.Pred("Likes", "ana_maria", "x-y", "p'"))
	if err := st.SaveKnowledgeBase(ctx, "likes", kb); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := st.LoadKnowledgeBase(ctx, "likes")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Contains(kb.Facts[0]) {
		t.Fatalf("round trip lost %s", kb.Facts[0])
	}
}

func TestRunsPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	st, dbPath := openTemp(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []store.Run{
		{ID: "01A", KnowledgeBase: "award", Goal: "EligibleForAward(P)", Engine: "forward/joint",
			Proven: true, Rounds: 2, Bindings: map[string]string{}, StartedAt: base, Duration: time.Millisecond,
			Steps: []store.RunStep{
				{Round: 1, RuleIndex: 0, Rule: "HasExcellentPerformance(P) => AcademicallyQualified(P)", Fact: "AcademicallyQualified(P)"},
				{Round: 2, RuleIndex: 3, Rule: "r", Fact: "EligibleForAward(P)", Goal: true},
			}},
		{ID: "01B", KnowledgeBase: "award", Goal: "EligibleForAward(who)", Proven: true,
			Bindings: map[string]string{"P": "who"}, StartedAt: base.Add(time.Second)},
		{ID: "01C", KnowledgeBase: "other", Goal: "Q", Error: "not derivable", StartedAt: base.Add(2 * time.Second)},
	}
	for _, r := range runs {
		if err := st.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun %s: %v", r.ID, err)
		}
	}
	st.Close()

	st2, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	got, err := st2.GetRun(ctx, "01A")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.Proven || got.Rounds != 2 || len(got.Steps) != 2 || !got.Steps[1].Goal {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.StartedAt.Equal(base) || got.Duration != time.Millisecond {
		t.Errorf("times not preserved: %v %v", got.StartedAt, got.Duration)
	}

	list, err := st2.ListRuns(ctx, "award", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "01B" || list[0].Bindings["P"] != "who" {
		t.Fatalf("unexpected list: %+v", list)
	}

	all, err := st2.ListRuns(ctx, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != "01C" || all[0].Error != "not derivable" {
		t.Fatalf("unexpected list: %+v", all)
	}

	if _, err := st2.GetRun(ctx, "nope"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
