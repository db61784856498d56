package index

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
	"github.com/conduit-lang/metagen/internal/logger"
)

// Run is one recorded generation run
type Run struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Modules   int
	Symbols   int
}

// Symbol is one top-level meta of a run
type Symbol struct {
	Module string
	Name   string
	Kind   string
	Flags  meta.Flags
}

// Member is a method or property of a class-like symbol
type Member struct {
	Kind     string
	Selector string
	JsName   string
}

// Store writes and queries the symbol index
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite index at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening index %s", path)
	}
	s := NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the index tables
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrating index schema")
		}
	}
	return nil
}

// RecordRun writes every meta of c, and the members of class-like metas,
// under runID. The run is written in one transaction.
func (s *Store) RecordRun(ctx context.Context, runID uuid.UUID, c *meta.Container) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		id := runID.String()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, created_at, modules, symbols) VALUES (?, ?, ?, ?)`,
			id, time.Now().UTC(), len(c.Modules()), c.Len(),
		); err != nil {
			return errors.Wrap(err, "recording run")
		}

		for _, mod := range c.Modules() {
			for _, m := range mod.Metas() {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO symbols (run_id, module, name, kind, flags) VALUES (?, ?, ?, ?, ?)`,
					id, mod.Name, m.FQName().Name, m.Kind().String(), int(m.Flags()),
				); err != nil {
					return errors.Wrapf(err, "recording %s", m.FQName())
				}
				if cm, ok := m.(meta.ClassMeta); ok {
					if err := recordMembers(ctx, tx, id, mod.Name, m.FQName().Name, cm.Class()); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func recordMembers(ctx context.Context, tx *sql.Tx, runID, module, owner string, c *meta.BaseClassMeta) error {
	insert := func(kind, selector, jsName string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO members (run_id, module, owner, member_kind, selector, js_name) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, module, owner, kind, selector, jsName,
		)
		return errors.Wrapf(err, "recording member %s of %s", selector, owner)
	}
	for _, m := range c.InstanceMethods {
		if err := insert(MemberInstance, m.Selector, m.JsName); err != nil {
			return err
		}
	}
	for _, m := range c.StaticMethods {
		if err := insert(MemberStatic, m.Selector, m.JsName); err != nil {
			return err
		}
	}
	for _, p := range c.Properties {
		if err := insert(MemberProperty, p.Name, p.JsName); err != nil {
			return err
		}
	}
	return nil
}

// LatestRun returns the most recently recorded run
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var (
		run Run
		id  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, modules, symbols FROM runs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id, &run.CreatedAt, &run.Modules, &run.Symbols)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, errors.New("no generation run has been indexed")
		}
		return Run{}, errors.Wrap(err, "reading latest run")
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, errors.Wrapf(err, "run id %q", id)
	}
	return run, nil
}

// FindSymbols returns the symbols of runID named name, in module order
func (s *Store) FindSymbols(ctx context.Context, runID uuid.UUID, name string) ([]Symbol, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT module, name, kind, flags FROM symbols WHERE run_id = ? AND name = ? ORDER BY module`,
		runID.String(), name,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "querying symbol %s", name)
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		var (
			sym   Symbol
			flags int
		)
		if err := rows.Scan(&sym.Module, &sym.Name, &sym.Kind, &flags); err != nil {
			return nil, err
		}
		sym.Flags = meta.Flags(flags)
		out = append(out, sym)
	}
	return out, rows.Err()
}

// Members returns the members recorded for owner in runID, ordered by kind
// then selector.
func (s *Store) Members(ctx context.Context, runID uuid.UUID, module, owner string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_kind, selector, js_name FROM members
		 WHERE run_id = ? AND module = ? AND owner = ? ORDER BY member_kind, selector`,
		runID.String(), module, owner,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "querying members of %s", owner)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.Kind, &m.Selector, &m.JsName); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Names returns every distinct symbol name of runID, sorted
func (s *Store) Names(ctx context.Context, runID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT name FROM symbols WHERE run_id = ? ORDER BY name`,
		runID.String(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying symbol names")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// withTransaction commits on success and rolls back on error or panic
func (s *Store) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning index transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warnw("index rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}
