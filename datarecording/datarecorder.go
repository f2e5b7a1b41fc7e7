// Package datarecording stores sweep records in a SQLite database.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data. Tables are
// described by a sample struct; every exported field becomes a column.
type DataRecorder interface {
	// CreateTable creates a new table shaped like the sample entry. A table
	// already in the database file is reused, but a recorder cannot create
	// the same table twice.
	CreateTable(tableName string, sampleEntry any) error

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any) error

	// ListTables returns the names of the tables created by this recorder.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush() error

	// Close flushes and closes the database.
	Close() error
}

// New creates a DataRecorder backed by a new file named path + ".sqlite3".
// It refuses to overwrite an existing database. An empty path picks a
// unique name.
func New(path string) (DataRecorder, error) {
	if path == "" {
		path = "prefetchsweep_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	return open(filename)
}

// Open creates a DataRecorder on the database at filename, creating the file
// if needed. Existing tables are kept, so a later step of a sweep can add
// its tables next to the ones of an earlier step.
func Open(filename string) (DataRecorder, error) {
	return open(filename)
}

func open(filename string) (DataRecorder, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Database used for recording: %s\n", filename)

	return NewWithDB(db), nil
}

// NewWithDB creates a new DataRecorder with a given database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		DB:        db,
		batchSize: 10000,
		tables:    make(map[string]*table),
	}

	// Buffered entries are written when the program leaves through
	// atexit.Exit.
	atexit.Register(func() { _ = w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database. It is
// safe for concurrent use.
type sqliteWriter struct {
	*sql.DB

	lock       sync.Mutex
	tables     map[string]*table
	tableOrder []string
	batchSize  int
	entryCount int
	closed     bool
}

func sqlType(kind reflect.Kind) (string, bool) {
	switch kind {
	case reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32:
		return "INTEGER", true
	case reflect.Uint64:
		// SQLite integers are signed 64 bit.
		return "INTEGER", true
	case reflect.Float32, reflect.Float64:
		return "REAL", true
	case reflect.String:
		return "TEXT", true
	default:
		return "", false
	}
}

func checkStructFields(entry any) ([]string, error) {
	t := reflect.TypeOf(entry)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.New("entry must be a struct")
	}

	columns := make([]string, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		colType, ok := sqlType(field.Type.Kind())
		if !ok {
			return nil, fmt.Errorf("field %s has unsupported type %s",
				field.Name, field.Type)
		}

		columns = append(columns, field.Name+" "+colType)
	}

	if len(columns) == 0 {
		return nil, errors.New("entry has no exported fields")
	}

	return columns, nil
}

func (t *sqliteWriter) CreateTable(tableName string, sampleEntry any) error {
	columns, err := checkStructFields(sampleEntry)
	if err != nil {
		return fmt.Errorf("table %s: %w", tableName, err)
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, exists := t.tables[tableName]; exists {
		return fmt.Errorf("table %s already created", tableName)
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS ` + tableName +
		` (` + "\n\t" + strings.Join(columns, ", \n\t") + "\n" + `);`
	if _, err := t.Exec(createTableSQL); err != nil {
		return fmt.Errorf("creating table %s: %w", tableName, err)
	}

	t.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
	t.tableOrder = append(t.tableOrder, tableName)

	return nil
}

func (t *sqliteWriter) InsertData(tableName string, entry any) error {
	t.lock.Lock()

	tbl, exists := t.tables[tableName]
	if !exists {
		t.lock.Unlock()
		return fmt.Errorf("table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != tbl.structType {
		t.lock.Unlock()
		return fmt.Errorf("table %s expects %s, got %T",
			tableName, tbl.structType, entry)
	}

	tbl.entries = append(tbl.entries, entry)
	t.entryCount++

	if t.entryCount < t.batchSize {
		t.lock.Unlock()
		return nil
	}

	defer t.lock.Unlock()

	return t.flushLocked()
}

func (t *sqliteWriter) ListTables() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.tableOrder...)
}

func (t *sqliteWriter) Flush() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.flushLocked()
}

func (t *sqliteWriter) flushLocked() error {
	if t.entryCount == 0 || t.closed {
		return nil
	}

	tx, err := t.Begin()
	if err != nil {
		return err
	}

	for _, tableName := range t.tableOrder {
		tbl := t.tables[tableName]
		if len(tbl.entries) == 0 {
			continue
		}

		if err := insertAll(tx, tableName, tbl.entries); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, tbl := range t.tables {
		tbl.entries = nil
	}

	t.entryCount = 0

	return nil
}

func insertAll(tx *sql.Tx, tableName string, entries []any) error {
	placeholders := make([]string, len(structs.Names(entries[0])))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	sqlStr := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", tableName, err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		v := structs.Values(entry)

		if _, err := stmt.Exec(v...); err != nil {
			return fmt.Errorf("inserting into %s: %w", tableName, err)
		}
	}

	return nil
}

func (t *sqliteWriter) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return nil
	}

	flushErr := t.flushLocked()
	t.closed = true

	return errors.Join(flushErr, t.DB.Close())
}
