package logic

import (
	"strings"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
)

// Clause is a Horn rule: an ordered conjunction of antecedent predicates
// implying one consequent. An empty antecedent makes the rule unconditional.
type Clause struct {
	antecedent []Predicate
	consequent Predicate
}

// NewClause returns an empty clause; set its consequent before use.
func NewClause() *Clause {
	return &Clause{antecedent: []Predicate{}}
}

// ClauseOf builds a clause from a complete antecedent and consequent.
func ClauseOf(antecedent []Predicate, consequent Predicate) (*Clause, error) {
	if antecedent == nil {
		return nil, internalerr.Construction("ClauseOf", "antecedent", nil)
	}
	c := &Clause{antecedent: make([]Predicate, 0, len(antecedent))}
	for _, p := range antecedent {
		if err := c.AddToAntecedent(p); err != nil {
			return nil, err
		}
	}
	if err := c.SetConsequent(consequent); err != nil {
		return nil, err
	}
	return c, nil
}

// Rule builds head <= body... and panics on a zero predicate. It is meant
// for knowledge bases written in Go source.
func Rule(head Predicate, body ...Predicate) *Clause {
	if body == nil {
		body = []Predicate{}
	}
	c, err := ClauseOf(body, head)
	if err != nil {
		panic(err)
	}
	return c
}

// AddToAntecedent appends p to the conjunction.
func (c *Clause) AddToAntecedent(p Predicate) error {
	if p.IsZero() || p.Name == "" {
		return internalerr.Construction("AddToAntecedent", "predicate", nil)
	}
	c.antecedent = append(c.antecedent, p)
	return nil
}

// SetConsequent sets the implied predicate.
func (c *Clause) SetConsequent(p Predicate) error {
	if p.IsZero() || p.Name == "" {
		return internalerr.Construction("SetConsequent", "predicate", nil)
	}
	c.consequent = p
	return nil
}

// Antecedent returns a copy of the antecedent predicates.
func (c *Clause) Antecedent() []Predicate {
	out := make([]Predicate, len(c.antecedent))
	copy(out, c.antecedent)
	return out
}

// Consequent returns the consequent and whether it has been set.
func (c *Clause) Consequent() (Predicate, bool) {
	return c.consequent, !c.consequent.IsZero()
}

// Validate reports a clause whose consequent was never set.
func (c *Clause) Validate() error {
	if c == nil {
		return internalerr.Construction("Clause", "clause", nil)
	}
	if c.consequent.IsZero() {
		return internalerr.Construction("Clause", "consequent", nil)
	}
	return nil
}

// String renders "A(x) ^ B(x) => C(x)"; an empty antecedent renders "=> C(x)".
func (c *Clause) String() string {
	var b strings.Builder
	for i, p := range c.antecedent {
		if i > 0 {
			b.WriteString(" ^ ")
		}
		b.WriteString(p.String())
	}
	if len(c.antecedent) > 0 {
		b.WriteByte(' ')
	}
	b.WriteString("=> ")
	if c.consequent.IsZero() {
		b.WriteString("?")
	} else {
		b.WriteString(c.consequent.String())
	}
	return b.String()
}
