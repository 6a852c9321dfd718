// Package rules reads the rule language knowledge bases are written in:
//
//	# facts end with a period
//	HasExcellentPerformance(P).
//	# rules join antecedents with ^ or &
//	AcademicallyQualified(P) ^ Leader(P) => EligibleForAward(P).
//	# an empty antecedent makes an unconditional rule
//	=> Always(x).
//	# goals start with ?
//	? EligibleForAward(P).
//
// Symbols are letters, digits, underscores, primes and dashes; every symbol
// is a Variable (constants included) unless followed by an argument list.
// Lines starting with # or % are comments.
package rules

import (
	"fmt"
	"strings"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
)

// File is a parsed rule-language source.
type File struct {
	Name  string
	Facts []logic.Predicate
	Rules []*logic.Clause
	Goals []logic.Predicate
}

// KnowledgeBase builds a knowledge base from the file's facts and rules.
func (f *File) KnowledgeBase() (*logic.KnowledgeBase, error) {
	return logic.KnowledgeBaseOf(f.Facts, f.Rules)
}

// Goal returns the first goal of the file.
func (f *File) Goal() (logic.Predicate, bool) {
	if len(f.Goals) == 0 {
		return logic.Predicate{}, false
	}
	return f.Goals[0], true
}

// StatementKind distinguishes parsed statements.
type StatementKind int

const (
	FactStatement StatementKind = iota
	RuleStatement
	GoalStatement
)

// Statement is one parsed fact, rule or goal.
type Statement struct {
	Kind      StatementKind
	Predicate logic.Predicate // fact or goal
	Rule      *logic.Clause
}

// Parse reads a complete source. name is used in error positions.
func Parse(name, src string) (*File, error) {
	ast, err := fileParser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	f := &File{
		Name:  name,
		Facts: []logic.Predicate{},
		Rules: []*logic.Clause{},
	}
	for _, st := range ast.Statements {
		s, err := st.statement()
		if err != nil {
			return nil, err
		}
		switch s.Kind {
		case FactStatement:
			f.Facts = append(f.Facts, s.Predicate)
		case RuleStatement:
			f.Rules = append(f.Rules, s.Rule)
		case GoalStatement:
			f.Goals = append(f.Goals, s.Predicate)
		}
	}
	return f, nil
}

// ParseStatement reads exactly one statement; the final period may be
// omitted.
func ParseStatement(src string) (Statement, error) {
	src = strings.TrimSpace(src)
	if !strings.HasSuffix(src, ".") {
		src += "."
	}
	ast, err := fileParser.ParseString("", src)
	if err != nil {
		return Statement{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	if len(ast.Statements) != 1 {
		return Statement{}, fmt.Errorf("%w: expected one statement, got %d", internalerr.ErrInvalidInput, len(ast.Statements))
	}
	return ast.Statements[0].statement()
}

// ParsePredicate reads a single atom such as "Map(F, 1, 10)".
func ParsePredicate(src string) (logic.Predicate, error) {
	ast, err := atomParser.ParseString("", src)
	if err != nil {
		return logic.Predicate{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	return ast.predicate()
}

// ParseGoal reads a goal as typed by a user: "? Wet(x).", "Wet(x)." and
// "Wet(x)" are all accepted.
func ParseGoal(src string) (logic.Predicate, error) {
	src = strings.TrimSpace(src)
	src = strings.TrimSpace(strings.TrimPrefix(src, "?"))
	return ParsePredicate(strings.TrimSuffix(src, "."))
}

// ParseClause reads a single rule such as "A(x) ^ B(x) => C(x)".
func ParseClause(src string) (*logic.Clause, error) {
	ast, err := clauseParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}
	return buildClause(ast.Body, ast.Head)
}

func (st *statementAST) statement() (Statement, error) {
	switch {
	case st.Goal != nil:
		p, err := st.Goal.predicate()
		return Statement{Kind: GoalStatement, Predicate: p}, err
	case st.Unconditional != nil:
		c, err := buildClause(nil, st.Unconditional)
		return Statement{Kind: RuleStatement, Rule: c}, err
	case st.Head != nil:
		c, err := buildClause(st.Body, st.Head)
		return Statement{Kind: RuleStatement, Rule: c}, err
	case len(st.Body) == 1:
		p, err := st.Body[0].predicate()
		return Statement{Kind: FactStatement, Predicate: p}, err
	}
	return Statement{}, fmt.Errorf("%w: %s: conjunction without \"=>\" consequent", internalerr.ErrInvalidInput, st.Pos)
}

func buildClause(body []*atomAST, head *atomAST) (*logic.Clause, error) {
	c := logic.NewClause()
	for _, a := range body {
		p, err := a.predicate()
		if err != nil {
			return nil, err
		}
		if err := c.AddToAntecedent(p); err != nil {
			return nil, err
		}
	}
	p, err := head.predicate()
	if err != nil {
		return nil, err
	}
	if err := c.SetConsequent(p); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *atomAST) predicate() (logic.Predicate, error) {
	args := []logic.Term{}
	if a.Args != nil {
		for _, t := range a.Args.Terms {
			args = append(args, t.term())
		}
	}
	p, err := logic.NewPredicate(a.Name, args)
	if err != nil {
		return logic.Predicate{}, fmt.Errorf("%s: %w", a.Pos, err)
	}
	return p, nil
}

func (a *atomAST) term() logic.Term {
	if a.Args == nil {
		return logic.V(a.Name)
	}
	args := make([]logic.Term, 0, len(a.Args.Terms))
	for _, t := range a.Args.Terms {
		args = append(args, t.term())
	}
	return logic.MustPredicate(a.Name, args)
}
