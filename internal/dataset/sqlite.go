package dataset

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // sqlite driver
)

const sampleTable = "samples"

// SQLiteSink appends attribute rows to a SQLite database, creating the
// samples table on first use. All attribute values are stored as TEXT;
// typed views are the training pipeline's concern.
type SQLiteSink struct {
	db      *sql.DB
	insert  *sql.Stmt
	columns []string
}

// Compile-time check: SQLiteSink implements Sink.
var _ Sink = (*SQLiteSink)(nil)

// NewSQLiteSink opens (or creates) the database at path with the given
// attribute columns.
func NewSQLiteSink(path string, columns []string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(createTableSQL(columns)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create samples table: %w", err)
	}

	stmt, err := db.Prepare(insertSQL(columns))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &SQLiteSink{db: db, insert: stmt, columns: columns}, nil
}

// Append writes one row in column order.
func (s *SQLiteSink) Append(row Row) error {
	args := make([]any, 0, len(s.columns)+1)
	args = append(args, row.Path)
	for _, col := range s.columns {
		args = append(args, row.Attrs.Text(col))
	}
	if _, err := s.insert.Exec(args...); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

// Close releases the prepared statement and the database handle.
func (s *SQLiteSink) Close() error {
	_ = s.insert.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// createTableSQL builds the DDL. Column names come from the fixed
// attribute schema, never from user input.
func createTableSQL(columns []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + sampleTable + " (\n")
	b.WriteString("  path TEXT NOT NULL")
	for _, col := range columns {
		b.WriteString(",\n  \"" + col + "\" TEXT")
	}
	b.WriteString("\n)")
	return b.String()
}

func insertSQL(columns []string) string {
	cols := make([]string, 0, len(columns)+1)
	cols = append(cols, "path")
	marks := make([]string, 0, len(columns)+1)
	marks = append(marks, "?")
	for _, col := range columns {
		cols = append(cols, `"`+col+`"`)
		marks = append(marks, "?")
	}
	return "INSERT INTO " + sampleTable + " (" + strings.Join(cols, ", ") +
		") VALUES (" + strings.Join(marks, ", ") + ")"
}
