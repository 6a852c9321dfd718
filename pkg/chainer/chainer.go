// Package chainer ties the pieces together: named knowledge bases in a
// store, an inference engine that answers goals against them, and a report
// for every answer.
package chainer

import (
	"context"
	"errors"
	"time"

	"github.com/cognicore/chainer/pkg/chainer/inference"
	"github.com/cognicore/chainer/pkg/chainer/inference/forward"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/report"
	"github.com/cognicore/chainer/pkg/chainer/rules"
	"github.com/cognicore/chainer/pkg/chainer/store"
	"github.com/cognicore/chainer/pkg/chainer/store/memstore"
)

// Chainer is the main facade
type Chainer struct {
	store   store.Store
	inf     inference.Engine
	reports *report.Builder
}

// Options configures a Chainer instance. Zero fields get an in-memory
// store, the default forward engine and a fresh report builder.
type Options struct {
	Store     store.Store
	Inference inference.Engine
	Reports   *report.Builder
}

// New creates a Chainer instance with the given dependencies
func New(opts Options) *Chainer {
	c := &Chainer{
		store:   opts.Store,
		inf:     opts.Inference,
		reports: opts.Reports,
	}
	if c.store == nil {
		c.store = memstore.New()
	}
	if c.inf == nil {
		c.inf = forward.New()
	}
	if c.reports == nil {
		c.reports = report.New()
	}
	return c
}

// Close cleanly shuts down the Chainer instance
func (c *Chainer) Close() error {
	return c.store.Close()
}

// Engine returns the configured inference engine.
func (c *Chainer) Engine() inference.Engine { return c.inf }

// Load stores kb under name, replacing any previous version.
func (c *Chainer) Load(ctx context.Context, name string, kb *logic.KnowledgeBase) error {
	return c.store.SaveKnowledgeBase(ctx, name, kb)
}

// LoadSource parses rule-language source and stores it under name. The
// parsed file is returned so callers can see the goals it poses.
func (c *Chainer) LoadSource(ctx context.Context, name, src string) (*rules.File, error) {
	f, err := rules.Parse(name, src)
	if err != nil {
		return nil, err
	}
	kb, err := f.KnowledgeBase()
	if err != nil {
		return nil, err
	}
	if err := c.Load(ctx, name, kb); err != nil {
		return nil, err
	}
	return f, nil
}

// Ask answers goal against the named knowledge base and records the run.
// Derived facts stay in the run; the stored knowledge base is unchanged.
// Not-derivable and round-limit answers are reported through the report's
// Outcome with a nil error.
func (c *Chainer) Ask(ctx context.Context, name string, goal logic.Predicate) (report.Report, error) {
	kb, err := c.store.LoadKnowledgeBase(ctx, name)
	if err != nil {
		return report.Report{}, err
	}

	started := time.Now()
	res, askErr := c.inf.Ask(ctx, kb, goal)
	r := c.reports.Build(name, c.inf.Name(), goal, res, askErr, started)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return r, ctxErr
	}
	if err := c.store.SaveRun(ctx, r.Run()); err != nil {
		return r, err
	}
	if askErr != nil && !errors.Is(askErr, inference.ErrNotDerivable) && !errors.Is(askErr, inference.ErrRoundLimit) {
		return r, askErr
	}
	return r, nil
}

// AskQuery is Ask with the goal in rule-language form, e.g. "? Wet(x).".
func (c *Chainer) AskQuery(ctx context.Context, name, goal string) (report.Report, error) {
	g, err := rules.ParseGoal(goal)
	if err != nil {
		return report.Report{}, err
	}
	return c.Ask(ctx, name, g)
}

// KnowledgeBases lists stored knowledge bases.
func (c *Chainer) KnowledgeBases(ctx context.Context) ([]store.KnowledgeBaseInfo, error) {
	return c.store.ListKnowledgeBases(ctx)
}

// Runs returns recent reports for name, newest first. An empty name lists
// runs of every knowledge base.
func (c *Chainer) Runs(ctx context.Context, name string, limit int) ([]report.Report, error) {
	runs, err := c.store.ListRuns(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	out := make([]report.Report, len(runs))
	for i, r := range runs {
		out[i] = report.FromRun(r)
	}
	return out, nil
}

// Run returns one report by ID.
func (c *Chainer) Run(ctx context.Context, id string) (report.Report, error) {
	r, err := c.store.GetRun(ctx, id)
	if err != nil {
		return report.Report{}, err
	}
	return report.FromRun(r), nil
}
