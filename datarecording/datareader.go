package datarecording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrUnmappedTable is returned when a table is queried before MapTable told
// the reader which struct its rows decode into.
var ErrUnmappedTable = errors.New("table has no mapped struct")

// QueryParams narrows and pages a query. Where and OrderBy are SQL
// fragments without their keywords, such as "State = ?" and
// "StartUnixNano DESC"; Args fill the placeholders of Where.
type QueryParams struct {
	Where   string
	Args    []any
	OrderBy string

	// Limit of 0 returns every matching row. Offset only applies together
	// with a limit.
	Limit  int
	Offset int
}

func (p QueryParams) filter() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) page() string {
	var b strings.Builder

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)

		if p.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", p.Offset)
		}
	}

	return b.String()
}

// DataReader reads records back from a database written by a DataRecorder.
type DataReader interface {
	// MapTable sets the struct the rows of a table decode into. Columns
	// match exported fields by name; unknown columns are skipped.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the tables present in the database.
	ListTables(ctx context.Context) ([]string, error)

	// Query returns pointers to structs of the mapped type, together with
	// the number of rows matching the filter regardless of paging.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	db      *sql.DB
	mapping map[string]reflect.Type
}

// NewReader opens the database file for reading.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB wraps an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:      db,
		mapping: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.mapping[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	t, ok := r.mapping[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnmappedTable, tableName)
	}

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.filter(),
		params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting %s: %w", tableName, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+tableName+params.filter()+params.page(),
		params.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying %s: %w", tableName, err)
	}
	defer rows.Close()

	results, err := decodeRows(rows, t)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// decodeRows scans every row into a new struct of type t.
func decodeRows(rows *sql.Rows, t reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fields := make([]int, len(columns))
	for i, name := range columns {
		fields[i] = -1

		if f, ok := t.FieldByName(name); ok && len(f.Index) == 1 {
			fields[i] = f.Index[0]
		}
	}

	var results []any

	for rows.Next() {
		v := reflect.New(t)
		targets := make([]any, len(columns))

		for i, idx := range fields {
			if idx < 0 {
				targets[i] = new(any)
				continue
			}

			targets[i] = v.Elem().Field(idx).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, v.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
