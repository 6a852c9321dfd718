package inference

import (
	"fmt"
	"io"
	"log/slog"
)

// Tracer observes derivations as they are accepted. Engines call it
// synchronously from the inference loop.
type Tracer interface {
	Trace(Step)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(Step)

// Trace calls f(s).
func (f TracerFunc) Trace(s Step) { f(s) }

type multiTracer []Tracer

func (m multiTracer) Trace(s Step) {
	for _, t := range m {
		t.Trace(s)
	}
}

// Tracers fans a step out to every non-nil tracer.
func Tracers(ts ...Tracer) Tracer {
	var out multiTracer
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// WriterTracer prints each derived predicate on its own line.
func WriterTracer(w io.Writer) Tracer {
	return TracerFunc(func(s Step) {
		fmt.Fprintln(w, s.Fact.String())
	})
}

// LogTracer emits one structured record per derivation.
func LogTracer(logger *slog.Logger) Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "inference"))
	return TracerFunc(func(s Step) {
		logger.Info("derived",
			slog.Int("round", s.Round),
			slog.Int("rule", s.RuleIndex),
			slog.String("fact", s.Fact.String()),
			slog.String("bindings", s.Bindings.String()),
			slog.Bool("goal", s.Goal),
		)
	})
}
