package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/chainer/pkg/chainer/logic"
)

type fakeWriter struct {
	content string
	err     error
}

func (f *fakeWriter) WriteRules(ctx context.Context, content string) error {
	if f.err != nil {
		return f.err
	}
	f.content = content
	return nil
}

func sampleKB(t *testing.T) *logic.KnowledgeBase {
	t.Helper()
	kb := logic.NewKnowledgeBase()
	if err := kb.AddFact(logic.Pred("Map", "F", "1", "10")); err != nil {
		t.Fatal(err)
	}
	if err := kb.AddFact(logic.Pred("Rain")); err != nil {
		t.Fatal(err)
	}
	if err := kb.AddRule(logic.Rule(logic.Pred("Surjective", "F"), logic.Pred("Map", "F", "X", "Z"))); err != nil {
		t.Fatal(err)
	}
	if err := kb.AddRule(logic.Rule(logic.Pred("Always", "x"))); err != nil {
		t.Fatal(err)
	}
	return kb
}

func TestPrologExporterWritesProgram(t *testing.T) {
	writer := &fakeWriter{}
	exporter := PrologExporter{Writer: writer}

	if err := exporter.Export(context.Background(), sampleKB(t)); err != nil {
		t.Fatalf("Export: %v", err)
	}

	for _, want := range []string{
		":- dynamic('Map'/3).\n",
		":- dynamic('Rain'/0).\n",
		"'Map'('F', '1', '10').\n",
		"'Rain'.\n",
		"% Map(F, X, Z) => Surjective(F)\n'Surjective'(V0) :- 'Map'(V0, V1, V2).\n",
		"'Always'(V0).\n",
	} {
		if !strings.Contains(writer.content, want) {
			t.Fatalf("missing %q in:\n%s", want, writer.content)
		}
	}
}

func TestPrologExporterWriterError(t *testing.T) {
	exporter := PrologExporter{Writer: &fakeWriter{err: errors.New("fail")}}
	if err := exporter.Export(context.Background(), logic.NewKnowledgeBase()); err == nil {
		t.Fatal("expected error")
	}
	if err := (&PrologExporter{}).Export(context.Background(), logic.NewKnowledgeBase()); err == nil {
		t.Fatal("expected nil writer error")
	}
}

func TestAtomQuoting(t *testing.T) {
	if got := Atom("x'"); got != `'x'''` {
		t.Fatalf("Atom = %s", got)
	}
	nested := logic.MustPredicate("Num", []logic.Term{logic.MustPredicate("s", []logic.Term{logic.V("z")})})
	if got := Goal(nested); got != "'Num'('s'('z'))" {
		t.Fatalf("Goal = %s", got)
	}
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "kb.pl")
	w := FileWriter{Path: path}
	if err := (&PrologExporter{Writer: w}).Export(context.Background(), sampleKB(t)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), ":- dynamic(") {
		t.Fatalf("unexpected file: %s", data)
	}
}
