package logic

// Unify returns the most general unifier of x and y that extends s, or nil
// when none exists. A nil s is returned unchanged.
//
// Functor names are compared textually; they are never variables.
func Unify(x, y Term, s *Substitution) *Substitution {
	if s == nil {
		return nil
	}
	if Equal(x, y) {
		return s
	}
	if v, ok := x.(Variable); ok {
		return unifyVar(v, y, s)
	}
	if v, ok := y.(Variable); ok {
		return unifyVar(v, x, s)
	}

	px, okx := x.(Predicate)
	py, oky := y.(Predicate)
	if !okx || !oky || px.Name != py.Name {
		return nil
	}
	return UnifyArgs(px.args, py.args, s)
}

// UnifyArgs unifies two argument lists pairwise, left to right, threading
// the substitution through each step. Lists of different length fail.
func UnifyArgs(xs, ys []Term, s *Substitution) *Substitution {
	if s == nil || len(xs) != len(ys) {
		return nil
	}
	for i := range xs {
		s = Unify(xs[i], ys[i], s)
		if s == nil {
			return nil
		}
	}
	return s
}

func unifyVar(v Variable, t Term, s *Substitution) *Substitution {
	if t == nil {
		return nil
	}
	if bound, ok := s.bindings[v.Name]; ok {
		return Unify(bound, t, s)
	}
	if tv, ok := t.(Variable); ok {
		if bound, ok := s.bindings[tv.Name]; ok {
			return Unify(v, bound, s)
		}
	}
	if Occurs(v, t) {
		return nil
	}
	return s.Bind(v.Name, t)
}
