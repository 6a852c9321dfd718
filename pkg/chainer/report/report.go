// Package report turns inference results into identified, persistable run
// reports and renders them as text, JSON or HTML.
package report

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/chainer/pkg/chainer/inference"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

// Outcomes of a run.
const (
	OutcomeProven       = "proven"
	OutcomeNotDerivable = "not derivable"
	OutcomeRoundLimit   = "round limit"
	OutcomeError        = "error"
)

// Builder constructs run reports with monotonic ULIDs. Safe for concurrent
// use.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new report builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Report is the explainable record of one Ask.
type Report struct {
	ID            string            `json:"id"`
	KnowledgeBase string            `json:"knowledge_base"`
	Goal          string            `json:"goal"`
	Engine        string            `json:"engine"`
	Outcome       string            `json:"outcome"`
	Bindings      map[string]string `json:"bindings"`
	Rounds        int               `json:"rounds"`
	Steps         []Step            `json:"steps"`
	Error         string            `json:"error,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	Duration      time.Duration     `json:"duration_ns"`
}

// Step is one accepted derivation.
type Step struct {
	Round     int    `json:"round"`
	RuleIndex int    `json:"rule_index"`
	Rule      string `json:"rule"`
	Fact      string `json:"fact"`
	Goal      bool   `json:"goal,omitempty"`
}

// Proven reports whether the goal was matched.
func (r Report) Proven() bool { return r.Outcome == OutcomeProven }

// Build creates a report for an Ask that started at started and returned
// res and err.
func (b *Builder) Build(kbName, engine string, goal logic.Predicate, res inference.Result, err error, started time.Time) Report {
	b.mu.Lock()
	id := ulid.MustNew(ulid.Now(), b.entropy).String()
	finished := b.now()
	b.mu.Unlock()

	r := Report{
		ID:            id,
		KnowledgeBase: kbName,
		Goal:          goal.String(),
		Engine:        engine,
		Bindings:      map[string]string{},
		Rounds:        res.Rounds,
		Steps:         make([]Step, 0, len(res.Steps)),
		StartedAt:     started.UTC(),
		Duration:      finished.Sub(started),
	}
	for _, s := range res.Steps {
		r.Steps = append(r.Steps, Step{
			Round:     s.Round,
			RuleIndex: s.RuleIndex,
			Rule:      s.Rule,
			Fact:      s.Fact.String(),
			Goal:      s.Goal,
		})
	}

	switch {
	case err == nil && res.Proven():
		r.Outcome = OutcomeProven
		r.Bindings = res.Substitution.Bindings()
	case errors.Is(err, inference.ErrNotDerivable):
		r.Outcome = OutcomeNotDerivable
	case errors.Is(err, inference.ErrRoundLimit):
		r.Outcome = OutcomeRoundLimit
		r.Error = err.Error()
	default:
		r.Outcome = OutcomeError
		if err != nil {
			r.Error = err.Error()
		}
	}
	return r
}

// Run converts the report to its persisted form.
func (r Report) Run() store.Run {
	run := store.Run{
		ID:            r.ID,
		KnowledgeBase: r.KnowledgeBase,
		Goal:          r.Goal,
		Engine:        r.Engine,
		Proven:        r.Proven(),
		Rounds:        r.Rounds,
		Bindings:      r.Bindings,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		Duration:      r.Duration,
	}
	// Negative outcomes are stored by name so FromRun can recover them.
	if r.Outcome == OutcomeNotDerivable || r.Outcome == OutcomeRoundLimit {
		run.Error = r.Outcome
	}
	for _, s := range r.Steps {
		run.Steps = append(run.Steps, store.RunStep(s))
	}
	return run
}

// FromRun rebuilds a report from its persisted form.
func FromRun(run store.Run) Report {
	r := Report{
		ID:            run.ID,
		KnowledgeBase: run.KnowledgeBase,
		Goal:          run.Goal,
		Engine:        run.Engine,
		Bindings:      run.Bindings,
		Rounds:        run.Rounds,
		Steps:         make([]Step, 0, len(run.Steps)),
		StartedAt:     run.StartedAt,
		Duration:      run.Duration,
	}
	if r.Bindings == nil {
		r.Bindings = map[string]string{}
	}
	switch {
	case run.Proven:
		r.Outcome = OutcomeProven
	case run.Error == OutcomeNotDerivable:
		r.Outcome = OutcomeNotDerivable
	case run.Error == OutcomeRoundLimit:
		r.Outcome = OutcomeRoundLimit
		r.Error = inference.ErrRoundLimit.Error()
	default:
		r.Outcome = OutcomeError
		r.Error = run.Error
	}
	for _, s := range run.Steps {
		r.Steps = append(r.Steps, Step(s))
	}
	return r
}
