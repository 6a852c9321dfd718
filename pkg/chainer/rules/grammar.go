package rules

import (
	"regexp"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const symbolPattern = `[A-Za-z0-9_][A-Za-z0-9_'\-]*`

var symbolRe = regexp.MustCompile(`^` + symbolPattern + `$`)

// IsSymbol reports whether s can be written as a symbol of the rule
// language.
func IsSymbol(s string) bool { return symbolRe.MatchString(s) }

var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|%)[^\n]*`},
	{Name: "Arrow", Pattern: `=>`},
	{Name: "Symbol", Pattern: symbolPattern},
	{Name: "Punct", Pattern: `[(),.?^&]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type fileAST struct {
	Statements []*statementAST `@@*`
}

// A statement is a goal, an unconditional rule, or a conjunction that is
// either a rule body (when followed by "=>") or a single fact.
type statementAST struct {
	Pos lexer.Position

	Goal          *atomAST   `  "?" @@ "."`
	Unconditional *atomAST   `| "=>" @@ "."`
	Body          []*atomAST `| @@ ( ("^" | "&") @@ )*`
	Head          *atomAST   `  ( "=>" @@ )? "."`
}

type clauseAST struct {
	Body []*atomAST `( @@ ( ("^" | "&") @@ )* )?`
	Head *atomAST   `"=>" @@ "."?`
}

type atomAST struct {
	Pos lexer.Position

	Name string   `@Symbol`
	Args *argsAST `@@?`
}

// Open is captured so that an empty list "()" still yields a non-nil
// argsAST.
type argsAST struct {
	Open  bool       `@"("`
	Terms []*atomAST `( @@ ( "," @@ )* )? ")"`
}

func options() []participle.Option {
	return []participle.Option{
		participle.Lexer(ruleLexer),
		participle.Elide("Comment", "Whitespace"),
	}
}

var (
	fileParser   = participle.MustBuild[fileAST](options()...)
	clauseParser = participle.MustBuild[clauseAST](options()...)
	atomParser   = participle.MustBuild[atomAST](options()...)
)
