package logic

import (
	"fmt"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
)

// KnowledgeBase is the fact set and the rule set an engine reasons over.
// Facts never hold two structurally equal predicates; during inference they
// only grow. Rules are read-only while an engine runs.
//
// A KnowledgeBase has a single writer: do not run two inferences against the
// same value concurrently. Clone it instead.
type KnowledgeBase struct {
	Facts []Predicate
	Rules []*Clause
}

// NewKnowledgeBase returns an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{Facts: []Predicate{}, Rules: []*Clause{}}
}

// KnowledgeBaseOf builds a knowledge base from complete collections.
// Nil collections, malformed rules and duplicate facts are construction
// errors.
func KnowledgeBaseOf(facts []Predicate, rules []*Clause) (*KnowledgeBase, error) {
	if facts == nil {
		return nil, internalerr.Construction("KnowledgeBaseOf", "facts", nil)
	}
	if rules == nil {
		return nil, internalerr.Construction("KnowledgeBaseOf", "rules", nil)
	}
	kb := NewKnowledgeBase()
	for _, f := range facts {
		if err := kb.AddFact(f); err != nil {
			return nil, internalerr.Construction("KnowledgeBaseOf", "facts", err)
		}
	}
	for _, r := range rules {
		if err := kb.AddRule(r); err != nil {
			return nil, err
		}
	}
	return kb, nil
}

// AddFact appends p unless a structurally equal fact is already present.
func (kb *KnowledgeBase) AddFact(p Predicate) error {
	if p.IsZero() || p.Name == "" {
		return internalerr.Construction("AddFact", "predicate", nil)
	}
	if kb.Contains(p) {
		return fmt.Errorf("fact %s: %w", p, internalerr.ErrDuplicate)
	}
	kb.Facts = append(kb.Facts, p)
	return nil
}

// AddRule appends a validated clause.
func (kb *KnowledgeBase) AddRule(c *Clause) error {
	if err := c.Validate(); err != nil {
		return err
	}
	kb.Rules = append(kb.Rules, c)
	return nil
}

// Contains reports whether a fact structurally equal to p is present.
func (kb *KnowledgeBase) Contains(p Predicate) bool {
	for _, f := range kb.Facts {
		if f.Equal(p) {
			return true
		}
	}
	return false
}

// Clone copies the fact and rule lists. Predicates and clauses are shared;
// predicates are immutable and engines do not modify clauses.
func (kb *KnowledgeBase) Clone() *KnowledgeBase {
	out := &KnowledgeBase{
		Facts: make([]Predicate, len(kb.Facts)),
		Rules: make([]*Clause, len(kb.Rules)),
	}
	copy(out.Facts, kb.Facts)
	copy(out.Rules, kb.Rules)
	return out
}

// Validate checks every rule, and that no fact is the zero predicate.
func (kb *KnowledgeBase) Validate() error {
	if kb == nil {
		return internalerr.Construction("KnowledgeBase", "knowledge base", nil)
	}
	for _, f := range kb.Facts {
		if f.IsZero() || f.Name == "" {
			return internalerr.Construction("KnowledgeBase", "facts", nil)
		}
	}
	for i, r := range kb.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}
