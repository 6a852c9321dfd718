// Package repl is an interactive session over one live knowledge base.
// Facts and rules typed at the prompt are added to it and goals are
// answered against it, so derived facts accumulate between goals.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cognicore/chainer/pkg/chainer/config"
	"github.com/cognicore/chainer/pkg/chainer/inference"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/rules"
)

// ErrQuit is returned by Exec for :quit.
var ErrQuit = errors.New("quit")

const help = `Statements:
  Rain(today).                 add a fact
  Rain(x) => Wet(x).           add a rule (join antecedents with ^ or &)
  ? Wet(today).                ask a goal
Commands:
  :facts                       list facts
  :rules                       list rules
  :load <file>                 add facts and rules from a .kb or .yaml file
  :reset                       forget everything
  :help                        show this text
  :quit                        leave
`

// Session holds the live knowledge base.
type Session struct {
	kb     *logic.KnowledgeBase
	engine inference.Engine
	out    io.Writer
}

// NewSession starts a session over kb, or an empty knowledge base when kb
// is nil.
func NewSession(engine inference.Engine, kb *logic.KnowledgeBase, out io.Writer) *Session {
	if kb == nil {
		kb = logic.NewKnowledgeBase()
	}
	return &Session{kb: kb, engine: engine, out: out}
}

// KnowledgeBase returns the live knowledge base.
func (s *Session) KnowledgeBase() *logic.KnowledgeBase { return s.kb }

// Exec runs one line. Errors in the input are returned, not printed.
func (s *Session) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
		return nil
	}
	if strings.HasPrefix(line, ":") {
		return s.command(ctx, strings.Fields(line))
	}

	st, err := rules.ParseStatement(line)
	if err != nil {
		return err
	}
	switch st.Kind {
	case rules.FactStatement:
		if err := s.kb.AddFact(st.Predicate); err != nil {
			if errors.Is(err, internalerr.ErrDuplicate) {
				fmt.Fprintf(s.out, "already known: %s\n", st.Predicate)
				return nil
			}
			return err
		}
		fmt.Fprintf(s.out, "fact %d: %s\n", len(s.kb.Facts), st.Predicate)
	case rules.RuleStatement:
		if err := s.kb.AddRule(st.Rule); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "rule %d: %s\n", len(s.kb.Rules)-1, st.Rule)
	case rules.GoalStatement:
		return s.ask(ctx, st.Predicate)
	}
	return nil
}

func (s *Session) ask(ctx context.Context, goal logic.Predicate) error {
	res, err := s.engine.Ask(ctx, s.kb, goal)
	switch {
	case err == nil:
		fmt.Fprintf(s.out, "yes %s  (rounds=%d)\n", res.Substitution, res.Rounds)
	case errors.Is(err, inference.ErrNotDerivable):
		fmt.Fprintf(s.out, "no  (rounds=%d)\n", res.Rounds)
	case errors.Is(err, inference.ErrRoundLimit):
		fmt.Fprintf(s.out, "unknown: %v\n", err)
	default:
		return err
	}
	return nil
}

func (s *Session) command(ctx context.Context, fields []string) error {
	switch fields[0] {
	case ":facts":
		for i, f := range s.kb.Facts {
			fmt.Fprintf(s.out, "%3d  %s\n", i+1, f)
		}
	case ":rules":
		for i, r := range s.kb.Rules {
			fmt.Fprintf(s.out, "%3d  %s\n", i, r)
		}
	case ":load":
		if len(fields) < 2 {
			return fmt.Errorf("%w: usage :load <file>", internalerr.ErrInvalidInput)
		}
		kbf, err := config.LoadKnowledgeBase(fields[1])
		if err != nil {
			return err
		}
		return s.Merge(kbf.KB)
	case ":reset":
		s.kb = logic.NewKnowledgeBase()
		fmt.Fprintln(s.out, "knowledge base cleared")
	case ":help":
		io.WriteString(s.out, help)
	case ":quit", ":q":
		return ErrQuit
	default:
		return fmt.Errorf("%w: unknown command %s (try :help)", internalerr.ErrInvalidInput, fields[0])
	}
	return nil
}

// Merge adds other's facts, skipping known ones, and its rules.
func (s *Session) Merge(other *logic.KnowledgeBase) error {
	added := 0
	for _, f := range other.Facts {
		if s.kb.Contains(f) {
			continue
		}
		if err := s.kb.AddFact(f); err != nil {
			return err
		}
		added++
	}
	for _, r := range other.Rules {
		if err := s.kb.AddRule(r); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.out, "loaded %d facts, %d rules\n", added, len(other.Rules))
	return nil
}

// Config configures the terminal.
type Config struct {
	Prompt      string
	HistoryFile string
}

// Run reads lines from the terminal until EOF, an interrupt on an empty
// line, or :quit.
func Run(ctx context.Context, s *Session, cfg Config) error {
	if cfg.Prompt == "" {
		cfg.Prompt = "?- "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	s.out = rl.Stdout()
	fmt.Fprintln(s.out, `Type facts, rules or "? Goal." to ask; ":help" lists commands.`)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err != nil { // io.EOF
			return nil
		}

		if err := s.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
		}
	}
}
