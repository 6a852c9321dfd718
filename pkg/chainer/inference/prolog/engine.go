// Package prolog answers goals with an embedded ISO Prolog interpreter.
//
// The knowledge base is consulted as rendered by package export: symbols in
// facts and goals are distinct constants and rule variables are universally
// quantified. That is the textbook reading of Horn clauses, so this engine
// serves as a cross-check for the forward engine rather than a replacement.
// The two disagree wherever the forward engine relies on constants binding
// like variables (Map(F, 1, 10) matching Map(F, X, 20), for instance).
package prolog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ichiban/prolog"

	"github.com/cognicore/chainer/pkg/chainer/export"
	"github.com/cognicore/chainer/pkg/chainer/inference"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
)

// Engine consults a fresh interpreter per Ask.
type Engine struct{}

// New creates a Prolog-backed engine.
func New() *Engine { return &Engine{} }

var _ inference.Engine = (*Engine)(nil)

func (e *Engine) Name() string { return "prolog" }

// Ask reports whether goal is provable. The substitution of a proven goal is
// empty since the goal holds no Prolog variables; Rounds and Steps are zero.
func (e *Engine) Ask(ctx context.Context, kb *logic.KnowledgeBase, goal logic.Predicate) (inference.Result, error) {
	var res inference.Result
	if err := kb.Validate(); err != nil {
		return res, err
	}
	if goal.IsZero() {
		return res, internalerr.Construction("Ask", "goal", nil)
	}

	p := prolog.New(nil, nil)
	if err := p.ExecContext(ctx, export.Program(kb, goal)); err != nil {
		return res, fmt.Errorf("consult: %w", err)
	}

	sols, err := p.QueryContext(ctx, export.Goal(goal)+".")
	if err != nil {
		return res, fmt.Errorf("query %s: %w", goal, err)
	}
	defer sols.Close()

	if sols.Next() {
		res.Substitution = logic.NewSubstitution()
		return res, nil
	}
	if err := sols.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return res, ctxErr
		}
		return res, fmt.Errorf("query %s: %w", goal, err)
	}
	return res, inference.ErrNotDerivable
}
