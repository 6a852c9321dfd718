package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS knowledge_bases (
	name TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kb_facts (
	kb TEXT NOT NULL,
	position INTEGER NOT NULL,
	fact TEXT NOT NULL,
	PRIMARY KEY(kb, position),
	FOREIGN KEY(kb) REFERENCES knowledge_bases(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS kb_rules (
	kb TEXT NOT NULL,
	position INTEGER NOT NULL,
	rule TEXT NOT NULL,
	PRIMARY KEY(kb, position),
	FOREIGN KEY(kb) REFERENCES knowledge_bases(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kb TEXT NOT NULL,
	goal TEXT NOT NULL,
	engine TEXT,
	proven INTEGER NOT NULL,
	rounds INTEGER NOT NULL,
	bindings TEXT,
	error TEXT,
	started_at TEXT NOT NULL,
	duration_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_kb ON runs(kb, started_at);

CREATE TABLE IF NOT EXISTS run_steps (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	round INTEGER NOT NULL,
	rule_index INTEGER NOT NULL,
	rule TEXT NOT NULL,
	fact TEXT NOT NULL,
	goal INTEGER NOT NULL,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveKnowledgeBase replaces the named knowledge base in one transaction.
func (s *sqliteStore) SaveKnowledgeBase(ctx context.Context, name string, kb *logic.KnowledgeBase) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if err := store.ValidateKnowledgeBase(kb); err != nil {
		return err
	}
	facts, rules := store.Encode(kb)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upsert = `
INSERT INTO knowledge_bases (name, updated_at) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, name, formatTime(s.now())); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kb_facts WHERE kb = ?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM kb_rules WHERE kb = ?`, name); err != nil {
		return err
	}
	for i, f := range facts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kb_facts (kb, position, fact) VALUES (?, ?, ?)`, name, i, f); err != nil {
			return err
		}
	}
	for i, r := range rules {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kb_rules (kb, position, rule) VALUES (?, ?, ?)`, name, i, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadKnowledgeBase reads the named knowledge base and parses it back.
func (s *sqliteStore) LoadKnowledgeBase(ctx context.Context, name string) (*logic.KnowledgeBase, error) {
	var updated string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM knowledge_bases WHERE name = ?`, name).Scan(&updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("knowledge base %q: %w", name, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	facts, err := s.column(ctx, `SELECT fact FROM kb_facts WHERE kb = ? ORDER BY position`, name)
	if err != nil {
		return nil, err
	}
	rules, err := s.column(ctx, `SELECT rule FROM kb_rules WHERE kb = ? ORDER BY position`, name)
	if err != nil {
		return nil, err
	}
	return store.Decode(facts, rules)
}

func (s *sqliteStore) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListKnowledgeBases returns summaries sorted by name.
func (s *sqliteStore) ListKnowledgeBases(ctx context.Context) ([]store.KnowledgeBaseInfo, error) {
	const query = `
SELECT k.name, k.updated_at,
	(SELECT COUNT(*) FROM kb_facts f WHERE f.kb = k.name),
	(SELECT COUNT(*) FROM kb_rules r WHERE r.kb = k.name)
FROM knowledge_bases k
ORDER BY k.name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.KnowledgeBaseInfo{}
	for rows.Next() {
		var info store.KnowledgeBaseInfo
		var updated string
		if err := rows.Scan(&info.Name, &updated, &info.Facts, &info.Rules); err != nil {
			return nil, err
		}
		info.UpdatedAt = parseTime(updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteKnowledgeBase removes a knowledge base; facts and rules cascade.
func (s *sqliteStore) DeleteKnowledgeBase(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_bases WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("knowledge base %q: %w", name, internalerr.ErrNotFound)
	}
	return nil
}

// SaveRun inserts or replaces a run and its steps.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id: %w", internalerr.ErrInvalidInput)
	}
	bindings, err := json.Marshal(r.Bindings)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO runs (id, kb, goal, engine, proven, rounds, bindings, error, started_at, duration_ns)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kb = excluded.kb,
	goal = excluded.goal,
	engine = excluded.engine,
	proven = excluded.proven,
	rounds = excluded.rounds,
	bindings = excluded.bindings,
	error = excluded.error,
	started_at = excluded.started_at,
	duration_ns = excluded.duration_ns`
	if _, err := tx.ExecContext(ctx, stmt,
		r.ID, r.KnowledgeBase, r.Goal, r.Engine, boolInt(r.Proven), r.Rounds,
		string(bindings), r.Error, formatTime(r.StartedAt), int64(r.Duration)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_steps WHERE run_id = ?`, r.ID); err != nil {
		return err
	}
	for i, st := range r.Steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_steps (run_id, seq, round, rule_index, rule, fact, goal) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, st.Round, st.RuleIndex, st.Rule, st.Fact, boolInt(st.Goal)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const runColumns = `id, kb, goal, engine, proven, rounds, bindings, error, started_at, duration_ns`

// GetRun returns a run with its steps.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, fmt.Errorf("run %q: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.Steps, err = s.steps(ctx, id); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

// ListRuns implements store.Store.
func (s *sqliteStore) ListRuns(ctx context.Context, name string, limit int) ([]store.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE (? = '' OR kb = ?) ORDER BY started_at DESC, id DESC`
	args := []any{name, name}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var out []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Steps, err = s.steps(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *sqliteStore) steps(ctx context.Context, runID string) ([]store.RunStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round, rule_index, rule, fact, goal FROM run_steps WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunStep
	for rows.Next() {
		var st store.RunStep
		var goal int
		if err := rows.Scan(&st.Round, &st.RuleIndex, &st.Rule, &st.Fact, &goal); err != nil {
			return nil, err
		}
		st.Goal = goal != 0
		out = append(out, st)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var (
		r                     store.Run
		engine, bindings, msg sql.NullString
		proven                int
		started               string
		duration              int64
	)
	if err := sc.Scan(&r.ID, &r.KnowledgeBase, &r.Goal, &engine, &proven, &r.Rounds,
		&bindings, &msg, &started, &duration); err != nil {
		return store.Run{}, err
	}
	r.Engine = engine.String
	r.Proven = proven != 0
	r.Error = msg.String
	r.StartedAt = parseTime(started)
	r.Duration = time.Duration(duration)
	if bindings.Valid && bindings.String != "" && bindings.String != "null" {
		if err := json.Unmarshal([]byte(bindings.String), &r.Bindings); err != nil {
			return store.Run{}, fmt.Errorf("run %s bindings: %w", r.ID, err)
		}
	}
	return r, nil
}

// Fixed width so that started_at orders lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
