package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/chainer/pkg/chainer/inference/forward"
	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/rules"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

// Config is the chainer configuration file.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Trace  TraceConfig  `yaml:"trace"`
	Store  StoreConfig  `yaml:"store"`
}

// EngineConfig selects and tunes the inference engine.
type EngineConfig struct {
	Backend   string `yaml:"backend"`  // forward | prolog
	Strategy  string `yaml:"strategy"` // joint | independent
	MaxRounds int    `yaml:"max_rounds"`
}

// TraceConfig controls derivation tracing.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // text | json
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	Path   string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: EngineConfig{Backend: "forward", Strategy: "joint"},
		Trace:  TraceConfig{Format: "text"},
		Store:  StoreConfig{Driver: "memory"},
	}
}

// Validate checks enumerations and required fields.
func (c Config) Validate() error {
	switch c.Engine.Backend {
	case "forward", "prolog":
	default:
		return fmt.Errorf("%w: engine.backend %q", internalerr.ErrInvalidConfig, c.Engine.Backend)
	}
	if _, err := forward.ParseStrategy(c.Engine.Strategy); err != nil {
		return fmt.Errorf("%w: engine.strategy: %v", internalerr.ErrInvalidConfig, err)
	}
	if c.Engine.MaxRounds < 0 {
		return fmt.Errorf("%w: engine.max_rounds must be >= 0", internalerr.ErrInvalidConfig)
	}
	switch c.Trace.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: trace.format %q", internalerr.ErrInvalidConfig, c.Trace.Format)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for sqlite", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store.driver %q", internalerr.ErrInvalidConfig, c.Store.Driver)
	}
	return nil
}

// Load reads a YAML config file over Default and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

// KnowledgeBaseFile is a knowledge base read from disk with its goal.
type KnowledgeBaseFile struct {
	Name string
	KB   *logic.KnowledgeBase
	Goal logic.Predicate // zero when the file poses no goal
}

// HasGoal reports whether the file poses a goal.
func (f KnowledgeBaseFile) HasGoal() bool { return !f.Goal.IsZero() }

// yamlKnowledgeBase is the YAML form of a knowledge base. Facts, rules and
// the goal are written in the rule language.
type yamlKnowledgeBase struct {
	Name  string   `yaml:"name"`
	Facts []string `yaml:"facts"`
	Rules []string `yaml:"rules"`
	Goal  string   `yaml:"goal"`
}

// LoadKnowledgeBase reads a .yaml/.yml knowledge base or a rule-language
// file (any other extension). The name defaults to the file's base name.
func LoadKnowledgeBase(path string) (KnowledgeBaseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KnowledgeBaseFile{}, err
	}
	out := KnowledgeBaseFile{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc yamlKnowledgeBase
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return KnowledgeBaseFile{}, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidInput, path, err)
		}
		if doc.Name != "" {
			out.Name = doc.Name
		}
		facts := make([]string, len(doc.Facts))
		for i, f := range doc.Facts {
			facts[i] = trimPeriod(f)
		}
		if out.KB, err = store.Decode(facts, doc.Rules); err != nil {
			return KnowledgeBaseFile{}, fmt.Errorf("%s: %w", path, err)
		}
		if doc.Goal != "" {
			if out.Goal, err = rules.ParseGoal(doc.Goal); err != nil {
				return KnowledgeBaseFile{}, fmt.Errorf("%s: goal: %w", path, err)
			}
		}
	default:
		f, err := rules.Parse(path, string(data))
		if err != nil {
			return KnowledgeBaseFile{}, err
		}
		if out.KB, err = f.KnowledgeBase(); err != nil {
			return KnowledgeBaseFile{}, fmt.Errorf("%s: %w", path, err)
		}
		out.Goal, _ = f.Goal()
	}
	return out, nil
}

func trimPeriod(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}
