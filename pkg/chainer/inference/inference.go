package inference

import (
	"context"
	"errors"

	"github.com/cognicore/chainer/pkg/chainer/logic"
)

// Outcome sentinels. ErrNotDerivable is the normal negative answer, not an
// engine failure.
var (
	ErrNotDerivable = errors.New("goal not derivable")
	ErrRoundLimit   = errors.New("round limit reached before fixpoint")
)

// Engine answers whether a goal follows from a knowledge base.
// This interface allows swapping implementations (the forward chainer, the
// Prolog cross-check, ...).
type Engine interface {
	// Name identifies the implementation in reports, e.g. "forward".
	Name() string

	// Ask derives facts from kb until goal is matched or nothing new can be
	// derived. It returns ErrNotDerivable in the second case. Engines may
	// append derived facts to kb.Facts; callers that need the original fact
	// set pass a clone.
	Ask(ctx context.Context, kb *logic.KnowledgeBase, goal logic.Predicate) (Result, error)
}

// Result describes one Ask call. Substitution is nil unless the goal was
// proven.
type Result struct {
	Substitution *logic.Substitution
	Rounds       int    // rounds started, 0 when the goal was already a fact
	Steps        []Step // accepted derivations in order
}

// Proven reports whether the goal was matched.
func (r Result) Proven() bool { return r.Substitution != nil }

// Step is one accepted derivation.
type Step struct {
	Round     int                 // 1-based round
	RuleIndex int                 // position of the rule in kb.Rules
	Rule      string              // rendered clause
	Fact      logic.Predicate     // derived predicate
	Bindings  *logic.Substitution // substitution that instantiated the consequent
	Goal      bool                // the derived predicate matched the goal
}
