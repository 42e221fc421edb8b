// Package store implements the document store on SQLite. Documents
// are JSON blobs grouped into named collections; filtered queries run
// against json_extract so callers never touch SQL.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned by Get when no document matches.
	ErrNotFound = errors.New("store: document not found")
	// ErrTooManyInValues is returned when an "in" filter exceeds
	// MaxInValues; callers must batch.
	ErrTooManyInValues = errors.New("store: 'in' filter supports at most 10 values")
)

// MaxInValues caps the number of values accepted by a single "in"
// filter, mirroring the limit of the hosted document stores this
// interface abstracts.
const MaxInValues = 10

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpGt  Op = ">"
	OpLt  Op = "<"
	OpGte Op = ">="
	OpLte Op = "<="
	OpIn  Op = "in"
)

// Filter matches documents whose field compares against Value.
// For OpIn, Value must be a []string of at most MaxInValues entries.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where is a convenience constructor for Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// QueryOptions controls ordering and limits.
type QueryOptions struct {
	OrderBy string
	Desc    bool
	Limit   int
}

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
  collection  TEXT NOT NULL,
  id          TEXT NOT NULL,
  body        TEXT NOT NULL,
  created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Get fetches a document by ID and unmarshals it into out.
func (d *DB) Get(ctx context.Context, collection, id string, out any) error {
	var body string
	err := d.sql.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

// Set writes a document under the given ID, overwriting any existing
// document.
func (d *DB) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = d.sql.ExecContext(ctx, `
INSERT INTO documents(collection, id, body) VALUES(?, ?, ?)
ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`,
		collection, id, string(body))
	return err
}

// Add writes a document under a generated ID and returns the ID.
func (d *DB) Add(ctx context.Context, collection string, doc any) (string, error) {
	id := generateID()
	if err := d.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Query returns the raw bodies of all documents in the collection
// matching every filter, optionally ordered and limited. Ordering is
// by a document field, not by insertion time.
func (d *DB) Query(ctx context.Context, collection string, filters []Filter, opts QueryOptions) ([]json.RawMessage, error) {
	q := sq.Select("body").From("documents").Where(sq.Eq{"collection": collection})

	for _, f := range filters {
		expr := fieldExpr(f.Field)
		switch f.Op {
		case OpEq:
			q = q.Where(sq.Expr(expr+" = ?", f.Value))
		case OpGt:
			q = q.Where(sq.Expr(expr+" > ?", f.Value))
		case OpLt:
			q = q.Where(sq.Expr(expr+" < ?", f.Value))
		case OpGte:
			q = q.Where(sq.Expr(expr+" >= ?", f.Value))
		case OpLte:
			q = q.Where(sq.Expr(expr+" <= ?", f.Value))
		case OpIn:
			vals, err := inValues(f.Value)
			if err != nil {
				return nil, err
			}
			q = q.Where(sq.Eq{expr: vals})
		default:
			return nil, fmt.Errorf("store: unsupported operator %q", f.Op)
		}
	}

	if opts.OrderBy != "" {
		dir := "ASC"
		if opts.Desc {
			dir = "DESC"
		}
		q = q.OrderBy(fieldExpr(opts.OrderBy) + " " + dir)
	}
	if opts.Limit > 0 {
		q = q.Limit(uint64(opts.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of documents in a collection matching an
// optional equality filter, for stats output.
func (d *DB) Count(ctx context.Context, collection string, filters []Filter) (int, error) {
	q := sq.Select("COUNT(*)").From("documents").Where(sq.Eq{"collection": collection})
	for _, f := range filters {
		if f.Op != OpEq {
			return 0, fmt.Errorf("store: Count only supports equality filters, got %q", f.Op)
		}
		q = q.Where(sq.Expr(fieldExpr(f.Field)+" = ?", f.Value))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := d.sql.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func fieldExpr(field string) string {
	return fmt.Sprintf("json_extract(body, '$.%s')", field)
}

func inValues(v any) ([]any, error) {
	var out []any
	switch vals := v.(type) {
	case []string:
		for _, s := range vals {
			out = append(out, s)
		}
	case []any:
		out = vals
	default:
		return nil, fmt.Errorf("store: 'in' filter requires a slice value, got %T", v)
	}
	if len(out) == 0 {
		return nil, errors.New("store: 'in' filter requires at least one value")
	}
	if len(out) > MaxInValues {
		return nil, ErrTooManyInValues
	}
	return out, nil
}

func generateID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand does not fail on supported platforms
	}
	return hex.EncodeToString(buf)
}
