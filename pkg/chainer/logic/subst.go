package logic

import "strings"

// Substitution maps variable names to bound terms. It is persistent: Bind
// returns a new substitution and never modifies the receiver, so one value
// can be shared by several unification attempts without aliasing.
//
// A nil *Substitution is the failure value (no unifier). Every method
// accepts a nil receiver, and Unify propagates it unchanged.
type Substitution struct {
	bindings map[string]Term
	order    []string
}

// NewSubstitution creates an empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{bindings: make(map[string]Term)}
}

// Failed reports whether s is the failure value.
func (s *Substitution) Failed() bool { return s == nil }

// Lookup returns the term bound to name.
func (s *Substitution) Lookup(name string) (Term, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.bindings[name]
	return t, ok
}

// Bind returns a copy of s extended with name -> t. A name that is already
// bound keeps its binding; bindings are never removed or replaced.
func (s *Substitution) Bind(name string, t Term) *Substitution {
	if s == nil {
		return nil
	}
	if _, ok := s.bindings[name]; ok {
		return s
	}
	next := &Substitution{
		bindings: make(map[string]Term, len(s.bindings)+1),
		order:    make([]string, len(s.order), len(s.order)+1),
	}
	for k, v := range s.bindings {
		next.bindings[k] = v
	}
	copy(next.order, s.order)
	next.bindings[name] = t
	next.order = append(next.order, name)
	return next
}

// Len returns the number of bindings.
func (s *Substitution) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Names returns the bound names in binding order.
func (s *Substitution) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Bindings returns name -> rendered term for every binding.
func (s *Substitution) Bindings() map[string]string {
	if s == nil {
		return nil
	}
	out := make(map[string]string, len(s.bindings))
	for k, v := range s.bindings {
		out[k] = v.String()
	}
	return out
}

// ApplyTerm replaces every bound variable in t by its binding. Bindings are
// applied once: a binding that is itself a bound variable is not followed.
func (s *Substitution) ApplyTerm(t Term) Term {
	if s == nil {
		return t
	}
	switch t := t.(type) {
	case Variable:
		if b, ok := s.bindings[t.Name]; ok {
			return b
		}
		return t
	case Predicate:
		return s.Apply(t)
	}
	return t
}

// Apply instantiates p under s.
func (s *Substitution) Apply(p Predicate) Predicate {
	if s == nil || len(s.bindings) == 0 {
		return p
	}
	args := make([]Term, len(p.args))
	for i, a := range p.args {
		args[i] = s.ApplyTerm(a)
	}
	return Predicate{Name: p.Name, args: args}
}

// String renders {X/1, Y/2} in binding order, or "fail" for the failure value.
func (s *Substitution) String() string {
	if s == nil {
		return "fail"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteByte('/')
		b.WriteString(s.bindings[name].String())
	}
	b.WriteByte('}')
	return b.String()
}
