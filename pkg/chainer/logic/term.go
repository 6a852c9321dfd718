// Package logic holds the term model the inference engines operate on:
// variables, predicates, Horn clauses, knowledge bases, substitutions and
// first-order unification with occurs-check.
//
// Terms form a closed union of two variants, Variable and Predicate. A
// Variable doubles as a ground constant: a name behaves as a variable only
// while it is unbound in the substitution of a running unification, so
// "P", "x" and "10" are all Variables.
package logic

import (
	"strconv"
	"strings"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
)

// Term is either a Variable or a Predicate.
type Term interface {
	// String renders the term in rule-language syntax.
	String() string

	// Equal reports structural equality.
	Equal(other Term) bool

	isTerm()
}

// Variable is an atomic symbol. Identity is by name.
type Variable struct {
	Name string
}

// V returns the variable with the given name.
func V(name string) Variable {
	return Variable{Name: name}
}

func (v Variable) String() string { return v.Name }

// Equal reports whether other is a variable of the same name.
func (v Variable) Equal(other Term) bool {
	o, ok := other.(Variable)
	return ok && o.Name == v.Name
}

func (Variable) isTerm() {}

// Predicate is a named, ordered tuple of terms: a logical atom when it
// appears in a fact or clause, a compound term when nested as an argument.
// Predicates are immutable once built.
type Predicate struct {
	Name string
	args []Term
}

// NewPredicate builds a predicate. An empty name or a nil argument list is
// a construction error; pass an empty non-nil slice for arity zero.
func NewPredicate(name string, args []Term) (Predicate, error) {
	if name == "" {
		return Predicate{}, internalerr.Construction("NewPredicate", "name", nil)
	}
	if args == nil {
		return Predicate{}, internalerr.Construction("NewPredicate", "args", nil)
	}
	for _, a := range args {
		switch a := a.(type) {
		case nil:
			return Predicate{}, internalerr.Construction("NewPredicate", "args", nil)
		case Variable:
			if a.Name == "" {
				return Predicate{}, internalerr.Construction("NewPredicate", "args", nil)
			}
		case Predicate:
			if a.IsZero() {
				return Predicate{}, internalerr.Construction("NewPredicate", "args", nil)
			}
		}
	}
	cp := make([]Term, len(args))
	copy(cp, args)
	return Predicate{Name: name, args: cp}, nil
}

// MustPredicate is NewPredicate that panics on error.
func MustPredicate(name string, args []Term) Predicate {
	p, err := NewPredicate(name, args)
	if err != nil {
		panic(err)
	}
	return p
}

// Pred builds a predicate whose arguments are variables with the given names.
//
//	Pred("Map", "F", "1", "10") // Map(F, 1, 10)
func Pred(name string, argNames ...string) Predicate {
	args := make([]Term, len(argNames))
	for i, n := range argNames {
		args[i] = V(n)
	}
	return MustPredicate(name, args)
}

// IsZero reports whether p is the zero Predicate, i.e. was never built.
func (p Predicate) IsZero() bool {
	return p.Name == "" && p.args == nil
}

// Arity returns the number of arguments.
func (p Predicate) Arity() int { return len(p.args) }

// Arg returns the i-th argument.
func (p Predicate) Arg(i int) Term { return p.args[i] }

// Args returns a copy of the argument list.
func (p Predicate) Args() []Term {
	cp := make([]Term, len(p.args))
	copy(cp, p.args)
	return cp
}

// Indicator returns name/arity, e.g. "Map/3".
func (p Predicate) Indicator() string {
	return p.Name + "/" + strconv.Itoa(len(p.args))
}

func (p Predicate) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte('(')
	for i, a := range p.args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports structural equality: same name, same arity and pairwise
// equal arguments. It is not equality up to variable renaming.
func (p Predicate) Equal(other Term) bool {
	o, ok := other.(Predicate)
	if !ok || o.Name != p.Name || len(o.args) != len(p.args) {
		return false
	}
	for i := range p.args {
		if !p.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (Predicate) isTerm() {}

// Equal reports structural equality of two terms; nil equals only nil.
func Equal(x, y Term) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return x.Equal(y)
}

// Occurs reports whether v appears anywhere inside t.
func Occurs(v Variable, t Term) bool {
	switch t := t.(type) {
	case Variable:
		return t.Name == v.Name
	case Predicate:
		for _, a := range t.args {
			if Occurs(v, a) {
				return true
			}
		}
	}
	return false
}
