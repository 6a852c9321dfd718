package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/rules"
)

// Store persists named knowledge bases and the history of runs against them.
type Store interface {
	Close() error

	// Knowledge bases
	SaveKnowledgeBase(ctx context.Context, name string, kb *logic.KnowledgeBase) error
	LoadKnowledgeBase(ctx context.Context, name string) (*logic.KnowledgeBase, error)
	ListKnowledgeBases(ctx context.Context) ([]KnowledgeBaseInfo, error)
	DeleteKnowledgeBase(ctx context.Context, name string) error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	// ListRuns returns the newest runs first; an empty name lists every
	// knowledge base and limit <= 0 means no limit.
	ListRuns(ctx context.Context, name string, limit int) ([]Run, error)
}

// KnowledgeBaseInfo summarises a stored knowledge base.
type KnowledgeBaseInfo struct {
	Name      string
	Facts     int
	Rules     int
	UpdatedAt time.Time
}

// Run is the persisted record of one Ask.
type Run struct {
	ID            string
	KnowledgeBase string
	Goal          string
	Engine        string
	Proven        bool
	Rounds        int
	Bindings      map[string]string
	Steps         []RunStep
	Error         string
	StartedAt     time.Time
	Duration      time.Duration
}

// RunStep is one accepted derivation of a run.
type RunStep struct {
	Round     int
	RuleIndex int
	Rule      string
	Fact      string
	Goal      bool
}

// ValidateName rejects empty knowledge base names.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("knowledge base name: %w", internalerr.ErrInvalidInput)
	}
	return nil
}

// ValidateKnowledgeBase rejects a knowledge base that Encode could not
// render in the rule language, so every store accepts the same input.
func ValidateKnowledgeBase(kb *logic.KnowledgeBase) error {
	if err := kb.Validate(); err != nil {
		return err
	}
	for _, f := range kb.Facts {
		if err := checkSymbols(f); err != nil {
			return fmt.Errorf("fact %s: %w", f, err)
		}
	}
	for i, r := range kb.Rules {
		head, _ := r.Consequent()
		for _, p := range append(r.Antecedent(), head) {
			if err := checkSymbols(p); err != nil {
				return fmt.Errorf("rule %d: %w", i, err)
			}
		}
	}
	return nil
}

func checkSymbols(t logic.Term) error {
	switch t := t.(type) {
	case logic.Variable:
		if !rules.IsSymbol(t.Name) {
			return fmt.Errorf("%w: symbol %q is not writable in the rule language", internalerr.ErrInvalidInput, t.Name)
		}
	case logic.Predicate:
		if !rules.IsSymbol(t.Name) {
			return fmt.Errorf("%w: predicate name %q is not writable in the rule language", internalerr.ErrInvalidInput, t.Name)
		}
		for _, a := range t.Args() {
			if err := checkSymbols(a); err != nil {
				return err
			}
		}
	}
	return nil
}

// Encode renders facts and rules in the rule language.
func Encode(kb *logic.KnowledgeBase) (facts, ruleTexts []string) {
	facts = make([]string, len(kb.Facts))
	for i, f := range kb.Facts {
		facts[i] = f.String()
	}
	ruleTexts = make([]string, len(kb.Rules))
	for i, r := range kb.Rules {
		ruleTexts[i] = r.String()
	}
	return facts, ruleTexts
}

// Decode parses the output of Encode back into a knowledge base.
func Decode(facts, ruleTexts []string) (*logic.KnowledgeBase, error) {
	kb := logic.NewKnowledgeBase()
	for _, s := range facts {
		p, err := rules.ParsePredicate(s)
		if err != nil {
			return nil, fmt.Errorf("decode fact %q: %w", s, err)
		}
		if err := kb.AddFact(p); err != nil {
			return nil, err
		}
	}
	for _, s := range ruleTexts {
		c, err := rules.ParseClause(s)
		if err != nil {
			return nil, fmt.Errorf("decode rule %q: %w", s, err)
		}
		if err := kb.AddRule(c); err != nil {
			return nil, err
		}
	}
	return kb, nil
}
