// Package store moves typed rows in and out of PostgreSQL tables.
//
// Load copies rows with the COPY protocol; Export reads a whole table (or its
// first rows) back as typed rows. Values are translated between the
// value package and the Go types pgx encodes and decodes natively.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/dialect/internal/value"
)

// DBTX is the subset of database operations the store needs.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var (
	// ErrInvalidTable is returned for table names that are not plain identifiers.
	ErrInvalidTable = errors.New("invalid table name")
	// ErrTableNotFound is returned when the table or one of its columns does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrConstraint is returned when a row violates a table constraint.
	ErrConstraint = errors.New("constraint violation")
	// ErrTypeMismatch is returned when a value cannot be stored in its column.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Store runs loads and exports against a database.
type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseTable validates name, an identifier optionally qualified by a schema,
// and returns it split for quoting.
func ParseTable(name string) (pgx.Identifier, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	for _, p := range parts {
		if !identRe.MatchString(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTable, name)
		}
	}
	return pgx.Identifier(parts), nil
}

// Load copies rows into table. Only the named columns are written; a row
// without a column supplies NULL.
func (s *Store) Load(ctx context.Context, table string, columns []string, rows []value.Row) (int64, error) {
	ident, err := ParseTable(table)
	if err != nil {
		return 0, err
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("load %s: no columns", ident.Sanitize())
	}

	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		out := make([]any, len(columns))
		for j, col := range columns {
			out[j] = toNative(rows[i][col])
		}
		return out, nil
	})

	n, err := s.db.CopyFrom(ctx, ident, columns, src)
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", ident.Sanitize(), classify(err))
	}
	return n, nil
}

// Export reads table in its natural order. A positive limit caps the number
// of rows. Columns are returned in table order.
func (s *Store) Export(ctx context.Context, table string, limit int) ([]string, []value.Row, error) {
	ident, err := ParseTable(table)
	if err != nil {
		return nil, nil, err
	}

	query := "SELECT * FROM " + ident.Sanitize()
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", ident.Sanitize(), classify(err))
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var out []value.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read row values: %w", classify(err))
		}
		row := make(value.Row, len(columns))
		for i, col := range columns {
			row[col] = fromNative(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows error: %w", classify(err))
	}

	return columns, out, nil
}

// toNative converts v to the Go type pgx encodes for it.
func toNative(v value.Value) any {
	switch x := v.(type) {
	case value.String:
		return string(x)
	case value.Integer:
		return int64(x)
	case value.Float:
		return float64(x)
	case value.Boolean:
		return bool(x)
	case value.DateTime:
		return x.Time()
	case value.Blob:
		return []byte(x)
	}
	return nil
}

// fromNative converts a value decoded by pgx to a typed value.
func fromNative(v any) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null{}
	case string:
		return value.String(x)
	case int16:
		return value.Integer(x)
	case int32:
		return value.Integer(x)
	case int64:
		return value.Integer(x)
	case uint32:
		return value.Integer(x)
	case float32:
		return value.Float(x)
	case float64:
		return value.Float(x)
	case bool:
		return value.Boolean(x)
	case time.Time:
		return value.DateTime(x.UTC())
	case []byte:
		return value.Blob(x)
	case [16]byte:
		return value.String(uuid.UUID(x).String())
	case pgtype.Numeric:
		return fromNumeric(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return value.String(fmt.Sprint(x))
		}
		return value.String(b)
	}
	return value.String(fmt.Sprint(v))
}

// fromNumeric keeps whole numbers that fit in 64 bits as integers.
func fromNumeric(n pgtype.Numeric) value.Value {
	if !n.Valid {
		return value.Null{}
	}
	if !n.NaN && n.InfinityModifier == pgtype.Finite && n.Exp >= 0 {
		if i, err := n.Int64Value(); err == nil && i.Valid {
			return value.Integer(i.Int64)
		}
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return value.Null{}
	}
	return value.Float(f.Float64)
}

// classify tags driver errors with the store's sentinels.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "42P01", pgErr.Code == "42703", pgErr.Code == "3F000":
			return fmt.Errorf("%w: %w", ErrTableNotFound, err)
		case strings.HasPrefix(pgErr.Code, "23"):
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		case strings.HasPrefix(pgErr.Code, "22"), pgErr.Code == "42804":
			return fmt.Errorf("%w: %w", ErrTypeMismatch, err)
		}
		return err
	}
	if strings.Contains(err.Error(), "unable to encode") {
		return fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}
	return err
}
