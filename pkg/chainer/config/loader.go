package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cognicore/chainer/pkg/chainer/inference"
	"github.com/cognicore/chainer/pkg/chainer/inference/forward"
	"github.com/cognicore/chainer/pkg/chainer/inference/prolog"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/store"
	"github.com/cognicore/chainer/pkg/chainer/store/memstore"
	"github.com/cognicore/chainer/pkg/chainer/store/sqlite"
)

// Loader loads the configuration file and knowledge base files and
// constructs components.
type Loader struct {
	ConfigPath         string
	KnowledgeBasePaths []string
	// TraceOutput receives trace lines when tracing is enabled; defaults
	// to os.Stderr.
	TraceOutput io.Writer
	// Adjust, when set, edits the loaded configuration before components
	// are built, e.g. to apply command-line overrides.
	Adjust func(*Config)
}

// Components holds all loaded configuration components
type Components struct {
	Config         Config
	Engine         inference.Engine
	Store          store.Store
	KnowledgeBases []KnowledgeBaseFile
}

// Close releases the store.
func (c *Components) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	comp := &Components{Config: Default()}

	if l.ConfigPath != "" {
		cfg, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		comp.Config = cfg
	}
	if l.Adjust != nil {
		l.Adjust(&comp.Config)
	}

	for _, path := range l.KnowledgeBasePaths {
		kbf, err := LoadKnowledgeBase(path)
		if err != nil {
			return nil, fmt.Errorf("load knowledge base: %w", err)
		}
		comp.KnowledgeBases = append(comp.KnowledgeBases, kbf)
	}

	out := l.TraceOutput
	if out == nil {
		out = os.Stderr
	}
	engine, err := comp.Config.NewEngine(out)
	if err != nil {
		return nil, err
	}
	comp.Engine = engine

	st, err := comp.Config.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	comp.Store = st

	return comp, nil
}

// NewEngine builds the configured engine. Trace lines go to out when
// tracing is enabled; the prolog backend does not trace.
func (c Config) NewEngine(out io.Writer) (inference.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Engine.Backend == "prolog" {
		return prolog.New(), nil
	}

	strategy, _ := forward.ParseStrategy(c.Engine.Strategy)
	opts := []forward.Option{
		forward.WithStrategy(strategy),
		forward.WithMaxRounds(c.Engine.MaxRounds),
	}
	if c.Trace.Enabled {
		var tracer inference.Tracer
		switch c.Trace.Format {
		case "json":
			tracer = inference.LogTracer(slog.New(slog.NewJSONHandler(out, nil)))
		default:
			tracer = inference.WriterTracer(out)
		}
		opts = append(opts, forward.WithTracer(tracer))
	}
	return forward.New(opts...), nil
}

// OpenStore opens the configured store.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		return sqlite.OpenSQLite(ctx, c.Store.Path)
	case "memory", "":
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("%w: store.driver %q", internalerr.ErrInvalidConfig, c.Store.Driver)
}
