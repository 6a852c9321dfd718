package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

type entry struct {
	kb        *logic.KnowledgeBase
	updatedAt time.Time
}

// Store is an in-memory implementation of store.Store for tests and
// one-shot commands.
type Store struct {
	mu   sync.RWMutex
	kbs  map[string]entry
	runs map[string]store.Run
	now  func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		kbs:  make(map[string]entry),
		runs: make(map[string]store.Run),
		now:  time.Now,
	}
}

var _ store.Store = (*Store)(nil)

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveKnowledgeBase stores a copy of kb, replacing any previous version.
func (s *Store) SaveKnowledgeBase(ctx context.Context, name string, kb *logic.KnowledgeBase) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if err := store.ValidateKnowledgeBase(kb); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kbs[name] = entry{kb: kb.Clone(), updatedAt: s.now().UTC()}
	return nil
}

// LoadKnowledgeBase returns a copy of the named knowledge base.
func (s *Store) LoadKnowledgeBase(ctx context.Context, name string) (*logic.KnowledgeBase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.kbs[name]
	if !ok {
		return nil, fmt.Errorf("knowledge base %q: %w", name, internalerr.ErrNotFound)
	}
	return e.kb.Clone(), nil
}

// ListKnowledgeBases returns summaries sorted by name.
func (s *Store) ListKnowledgeBases(ctx context.Context) ([]store.KnowledgeBaseInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.KnowledgeBaseInfo, 0, len(s.kbs))
	for name, e := range s.kbs {
		out = append(out, store.KnowledgeBaseInfo{
			Name:      name,
			Facts:     len(e.kb.Facts),
			Rules:     len(e.kb.Rules),
			UpdatedAt: e.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeleteKnowledgeBase removes the named knowledge base. Its runs are kept.
func (s *Store) DeleteKnowledgeBase(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kbs[name]; !ok {
		return fmt.Errorf("knowledge base %q: %w", name, internalerr.ErrNotFound)
	}
	delete(s.kbs, name)
	return nil
}

// SaveRun inserts or replaces a run, keyed by ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %q: %w", id, internalerr.ErrNotFound)
	}
	return copyRun(r), nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context, name string, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Run
	for _, r := range s.runs {
		if name != "" && r.KnowledgeBase != name {
			continue
		}
		out = append(out, copyRun(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRun(r store.Run) store.Run {
	if r.Bindings != nil {
		b := make(map[string]string, len(r.Bindings))
		for k, v := range r.Bindings {
			b[k] = v
		}
		r.Bindings = b
	}
	r.Steps = append([]store.RunStep(nil), r.Steps...)
	return r
}
