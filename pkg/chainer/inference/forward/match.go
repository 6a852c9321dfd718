package forward

import (
	"fmt"
	"strings"

	"github.com/cognicore/chainer/pkg/chainer/logic"
)

// Strategy decides which substitutions a rule's antecedent yields against
// the current facts.
type Strategy int

const (
	// MatchJoint solves the antecedent as a conjunction: antecedents are
	// matched left to right against same-named facts with one substitution
	// threaded through, backtracking over the facts. Every complete solution
	// is a candidate.
	MatchJoint Strategy = iota

	// MatchIndependent matches each antecedent on its own against every
	// same-named fact with a fresh substitution; each single match is a
	// candidate. Antecedents need not agree on shared variables, so one
	// satisfied antecedent is enough to fire the rule.
	MatchIndependent
)

func (s Strategy) String() string {
	switch s {
	case MatchJoint:
		return "joint"
	case MatchIndependent:
		return "independent"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy reads "joint" or "independent".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "joint":
		return MatchJoint, nil
	case "independent":
		return MatchIndependent, nil
	}
	return 0, fmt.Errorf("unknown match strategy %q", name)
}

// match returns candidate substitutions in fact order. An empty antecedent
// yields a single empty substitution under both strategies.
func (s Strategy) match(facts *factSet, antecedent []logic.Predicate) []*logic.Substitution {
	if len(antecedent) == 0 {
		return []*logic.Substitution{logic.NewSubstitution()}
	}
	if s == MatchIndependent {
		return matchIndependent(facts, antecedent)
	}
	return matchJoint(facts, antecedent)
}

func matchIndependent(facts *factSet, antecedent []logic.Predicate) []*logic.Substitution {
	var out []*logic.Substitution
	for _, p := range antecedent {
		for _, f := range facts.named(p.Name) {
			if theta := logic.Unify(p, f, logic.NewSubstitution()); theta != nil {
				out = append(out, theta)
			}
		}
	}
	return out
}

func matchJoint(facts *factSet, antecedent []logic.Predicate) []*logic.Substitution {
	var out []*logic.Substitution
	var solve func(i int, theta *logic.Substitution)
	solve = func(i int, theta *logic.Substitution) {
		if i == len(antecedent) {
			out = append(out, theta)
			return
		}
		p := antecedent[i]
		for _, f := range facts.named(p.Name) {
			if next := logic.Unify(p, f, theta); next != nil {
				solve(i+1, next)
			}
		}
	}
	solve(0, logic.NewSubstitution())
	return out
}

// factSet indexes predicates by name, preserving insertion order, and
// answers structural membership.
type factSet struct {
	byName map[string][]logic.Predicate
}

func newFactSet(facts []logic.Predicate) *factSet {
	fs := &factSet{byName: make(map[string][]logic.Predicate)}
	for _, f := range facts {
		fs.add(f)
	}
	return fs
}

func (fs *factSet) named(name string) []logic.Predicate {
	return fs.byName[name]
}

// add inserts p and reports whether it was new.
func (fs *factSet) add(p logic.Predicate) bool {
	for _, f := range fs.byName[p.Name] {
		if f.Equal(p) {
			return false
		}
	}
	fs.byName[p.Name] = append(fs.byName[p.Name], p)
	return true
}
