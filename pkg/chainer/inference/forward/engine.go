// Package forward implements first-order forward chaining over Horn clauses.
//
// Each round visits the rules in registration order, matches their
// antecedents against the facts present when the round started, and
// instantiates the consequents. A derived predicate is accepted when it is
// structurally new; every accepted predicate is tested against the goal with
// a fresh substitution and the first match ends the run. Accepted predicates
// join the fact set when the round ends, and a round that accepts nothing is
// the fixpoint.
package forward

import (
	"context"

	"github.com/cognicore/chainer/pkg/chainer/inference"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
)

// Engine is the forward-chaining inference engine. It holds configuration
// only and may be shared; the knowledge base passed to Ask may not.
type Engine struct {
	tracer    inference.Tracer
	strategy  Strategy
	maxRounds int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracer sets the sink that observes accepted derivations.
func WithTracer(t inference.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithStrategy selects how rule antecedents are matched. Default MatchJoint.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithMaxRounds bounds the number of rounds; 0 means no bound. Ask returns
// inference.ErrRoundLimit when the bound is hit before a fixpoint.
func WithMaxRounds(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRounds = n
		}
	}
}

// New creates a forward-chaining engine.
func New(opts ...Option) *Engine {
	e := &Engine{strategy: MatchJoint}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ inference.Engine = (*Engine)(nil)

// Name implements inference.Engine.
func (e *Engine) Name() string { return "forward/" + e.strategy.String() }

// Ask is the package-level form of Engine.Ask with default options and no
// cancellation. It returns the unifier of the goal and the first matching
// derived fact, or inference.ErrNotDerivable.
//
// Antecedents are matched jointly (MatchJoint), so variables shared between
// antecedents must bind consistently. The per-antecedent matching of the
// reference evaluator is available as New(WithStrategy(MatchIndependent)).
func Ask(kb *logic.KnowledgeBase, goal logic.Predicate) (*logic.Substitution, error) {
	res, err := New().Ask(context.Background(), kb, goal)
	return res.Substitution, err
}

// Ask runs forward chaining until goal is matched, a round derives nothing
// new, ctx is done or the round limit is reached. Derived facts are appended
// to kb.Facts at the end of each completed round; the round that proves the
// goal returns before its derivations are merged.
func (e *Engine) Ask(ctx context.Context, kb *logic.KnowledgeBase, goal logic.Predicate) (inference.Result, error) {
	var res inference.Result
	if err := kb.Validate(); err != nil {
		return res, err
	}
	if goal.IsZero() || goal.Name == "" {
		return res, internalerr.Construction("Ask", "goal", nil)
	}

	if kb.Contains(goal) {
		res.Substitution = logic.NewSubstitution()
		return res, nil
	}

	known := newFactSet(kb.Facts)
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if e.maxRounds > 0 && round > e.maxRounds {
			return res, inference.ErrRoundLimit
		}
		res.Rounds = round

		index := newFactSet(kb.Facts)
		var derived []logic.Predicate

		for ri, rule := range kb.Rules {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			head, _ := rule.Consequent()
			for _, theta := range e.strategy.match(index, rule.Antecedent()) {
				q := theta.Apply(head)
				if !known.add(q) {
					continue
				}
				derived = append(derived, q)

				phi := logic.Unify(q, goal, logic.NewSubstitution())
				step := inference.Step{
					Round:     round,
					RuleIndex: ri,
					Rule:      rule.String(),
					Fact:      q,
					Bindings:  theta,
					Goal:      phi != nil,
				}
				res.Steps = append(res.Steps, step)
				if e.tracer != nil {
					e.tracer.Trace(step)
				}
				if phi != nil {
					res.Substitution = phi
					return res, nil
				}
			}
		}

		kb.Facts = append(kb.Facts, derived...)
		if len(derived) == 0 {
			return res, inference.ErrNotDerivable
		}
	}
}
