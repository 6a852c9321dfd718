// Package export renders knowledge bases as Prolog programs.
//
// Every symbol in a fact or goal becomes a quoted atom. Inside a rule every
// Variable becomes a Prolog variable scoped to that clause, so the program
// has the textbook reading of the knowledge base: constants are distinct and
// rules generalise over their variables.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cognicore/chainer/pkg/chainer/logic"
)

// RuleWriter persists a rendered program to a destination (file, DB, etc.).
type RuleWriter interface {
	WriteRules(ctx context.Context, content string) error
}

// FileWriter writes the program to Path, creating parent directories.
type FileWriter struct {
	Path string
}

func (w FileWriter) WriteRules(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.Path == "" {
		return fmt.Errorf("file writer: empty path")
	}
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file writer: %w", err)
		}
	}
	return os.WriteFile(w.Path, []byte(content), 0o644)
}

// PrologExporter renders a knowledge base and hands it to Writer.
type PrologExporter struct {
	Writer RuleWriter
}

func (e *PrologExporter) Export(ctx context.Context, kb *logic.KnowledgeBase) error {
	if e.Writer == nil {
		return fmt.Errorf("prolog exporter: nil writer")
	}
	if err := kb.Validate(); err != nil {
		return err
	}
	return e.Writer.WriteRules(ctx, Program(kb))
}

// Program renders kb: dynamic declarations for every predicate indicator,
// then the facts, then one clause per rule.
func Program(kb *logic.KnowledgeBase, extra ...logic.Predicate) string {
	var b strings.Builder
	for _, ind := range indicators(kb, extra) {
		fmt.Fprintf(&b, ":- dynamic(%s).\n", ind)
	}
	for _, f := range kb.Facts {
		b.WriteString(Goal(f))
		b.WriteString(".\n")
	}
	for _, r := range kb.Rules {
		b.WriteString(Clause(r))
	}
	return b.String()
}

// Goal renders p with every symbol as a quoted atom, without the final
// period.
func Goal(p logic.Predicate) string {
	return ground(p)
}

// Clause renders a rule as "% source\nhead :- body.\n". Variables are
// renamed V0, V1, ... in order of first appearance.
func Clause(c *logic.Clause) string {
	vars := map[string]string{}
	head, _ := c.Consequent()

	var b strings.Builder
	fmt.Fprintf(&b, "%% %s\n", c.String())
	b.WriteString(open(head, vars))
	if body := c.Antecedent(); len(body) > 0 {
		b.WriteString(" :- ")
		for i, p := range body {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(open(p, vars))
		}
	}
	b.WriteString(".\n")
	return b.String()
}

// Atom quotes s as a Prolog atom.
func Atom(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func ground(t logic.Term) string {
	return render(t, func(v logic.Variable) string { return Atom(v.Name) })
}

func open(t logic.Term, vars map[string]string) string {
	return render(t, func(v logic.Variable) string {
		name, ok := vars[v.Name]
		if !ok {
			name = fmt.Sprintf("V%d", len(vars))
			vars[v.Name] = name
		}
		return name
	})
}

func render(t logic.Term, variable func(logic.Variable) string) string {
	switch t := t.(type) {
	case logic.Variable:
		return variable(t)
	case logic.Predicate:
		if t.Arity() == 0 {
			return Atom(t.Name)
		}
		args := make([]string, t.Arity())
		for i, a := range t.Args() {
			args[i] = render(a, variable)
		}
		return Atom(t.Name) + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

func indicators(kb *logic.KnowledgeBase, extra []logic.Predicate) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p logic.Predicate) {
		ind := Atom(p.Name) + "/" + fmt.Sprint(p.Arity())
		if !seen[ind] {
			seen[ind] = true
			out = append(out, ind)
		}
	}
	for _, f := range kb.Facts {
		add(f)
	}
	for _, r := range kb.Rules {
		for _, p := range r.Antecedent() {
			add(p)
		}
		if h, ok := r.Consequent(); ok {
			add(h)
		}
	}
	for _, p := range extra {
		add(p)
	}
	sort.Strings(out)
	return out
}
