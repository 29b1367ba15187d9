// Package sqlstore persists burgers in a relational database through database/sql.
//
// Queries are built with Masterminds/squirrel. Two dialects are supported:
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite). Every mutation runs in its
// own transaction that is committed or rolled back before the call returns.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/samber/mo"

	"burgerapi/pkg/burger"
)

// Dialect selects placeholder style and locking clauses.
type Dialect string

const (
	// Postgres uses $n placeholders and row locks.
	Postgres Dialect = "postgres"
	// SQLite uses ? placeholders; its single writer connection serialises transactions.
	SQLite Dialect = "sqlite"
)

const table = "burgers"

var columns = []string{"id", "name", "description", "price", "version"}

// PostgreSQL SQLSTATE codes reported when concurrent transactions collide.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// Repository implements burger.Repository over *sql.DB.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
}

// New creates a repository for the given dialect. The caller owns db.
func New(db *sql.DB, dialect Dialect) (*Repository, error) {
	var ph sq.PlaceholderFormat
	switch dialect {
	case Postgres:
		ph = sq.Dollar
	case SQLite:
		ph = sq.Question
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &Repository{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(ph),
	}, nil
}

// Ping verifies that the database connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListAll fetches all burgers ordered by ID.
func (r *Repository) ListAll(ctx context.Context) ([]burger.Burger, error) {
	query, args, err := r.sb.Select(columns...).From(table).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing burgers: %w", err)
	}
	defer rows.Close()

	burgers := []burger.Burger{}
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		burgers = append(burgers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return burgers, nil
}

// GetByID retrieves a burger by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	query, args, err := r.sb.Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return mo.None[burger.Burger](), fmt.Errorf("building get query: %w", err)
	}
	b, err := scan(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[burger.Burger](), nil
	}
	if err != nil {
		return mo.None[burger.Burger](), fmt.Errorf("querying burger %d: %w", id, err)
	}
	return mo.Some(b), nil
}

// Insert adds a burger and returns it with the ID assigned by the database.
func (r *Repository) Insert(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	query, args, err := r.sb.
		Insert(table).
		Columns("name", "description", "price", "version").
		Values(b.Name, b.Description, b.Price, 1).
		Suffix("RETURNING id, version").
		ToSql()
	if err != nil {
		return burger.Burger{}, fmt.Errorf("building insert query: %w", err)
	}

	err = r.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&b.ID, &b.Version)
	})
	if err != nil {
		return burger.Burger{}, fmt.Errorf("inserting burger: %w", err)
	}
	return b, nil
}

// Update replaces the non-key fields of an existing burger.
func (r *Repository) Update(ctx context.Context, b burger.Burger) (burger.Burger, error) {
	sel := r.sb.Select("version").From(table).Where(sq.Eq{"id": b.ID})
	if r.dialect == Postgres {
		sel = sel.Suffix("FOR UPDATE")
	}
	selQuery, selArgs, err := sel.ToSql()
	if err != nil {
		return burger.Burger{}, fmt.Errorf("building version query: %w", err)
	}

	err = r.withTx(ctx, func(tx *sql.Tx) error {
		var current int64
		err := tx.QueryRowContext(ctx, selQuery, selArgs...).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return burger.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}
		if b.Version != 0 && b.Version != current {
			return burger.ErrConflict
		}

		updQuery, updArgs, err := r.sb.
			Update(table).
			Set("name", b.Name).
			Set("description", b.Description).
			Set("price", b.Price).
			Set("version", sq.Expr("version + 1")).
			Where(sq.Eq{"id": b.ID, "version": current}).
			Suffix("RETURNING version").
			ToSql()
		if err != nil {
			return fmt.Errorf("building update query: %w", err)
		}
		err = tx.QueryRowContext(ctx, updQuery, updArgs...).Scan(&b.Version)
		if errors.Is(err, sql.ErrNoRows) {
			return burger.ErrConflict
		}
		return err
	})
	if err != nil {
		if errors.Is(err, burger.ErrNotFound) || errors.Is(err, burger.ErrConflict) {
			return burger.Burger{}, err
		}
		return burger.Burger{}, fmt.Errorf("updating burger %d: %w", b.ID, err)
	}
	return b, nil
}

// Delete removes a burger by ID and returns the removed row.
func (r *Repository) Delete(ctx context.Context, id int64) (mo.Option[burger.Burger], error) {
	query, args, err := r.sb.
		Delete(table).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, name, description, price, version").
		ToSql()
	if err != nil {
		return mo.None[burger.Burger](), fmt.Errorf("building delete query: %w", err)
	}

	var removed burger.Burger
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		removed, err = scan(tx.QueryRowContext(ctx, query, args...))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return mo.None[burger.Burger](), nil
	}
	if err != nil {
		return mo.None[burger.Burger](), fmt.Errorf("deleting burger %d: %w", id, err)
	}
	return mo.Some(removed), nil
}

// withTx runs fn inside a transaction that is always released before returning.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return conflictOr(err)
	}
	if err := tx.Commit(); err != nil {
		return conflictOr(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (burger.Burger, error) {
	var b burger.Burger
	err := s.Scan(&b.ID, &b.Name, &b.Description, &b.Price, &b.Version)
	return b, err
}

// conflictOr maps PostgreSQL serialization and deadlock failures to burger.ErrConflict.
func conflictOr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%w: %s", burger.ErrConflict, pqErr.Message)
		}
	}
	return err
}
