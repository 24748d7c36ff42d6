package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVSink appends attribute rows to a CSV file. Reruns against the same
// file extend it; the header is written only when the file starts empty.
type CSVSink struct {
	f       *os.File
	w       *csv.Writer
	columns []string
}

// Compile-time check: CSVSink implements Sink.
var _ Sink = (*CSVSink)(nil)

// NewCSVSink opens (or creates) the CSV file at path with the given
// attribute columns. The first column is always the sample path.
func NewCSVSink(path string, columns []string) (*CSVSink, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat csv %s: %w", path, err)
	}

	s := &CSVSink{f: f, w: csv.NewWriter(f), columns: columns}

	if info.Size() == 0 {
		header := append([]string{"path"}, columns...)
		if err := s.w.Write(header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
	}

	return s, nil
}

// Append writes one row in column order.
func (s *CSVSink) Append(row Row) error {
	record := make([]string, 0, len(s.columns)+1)
	record = append(record, row.Path)
	for _, col := range s.columns {
		record = append(record, row.Attrs.Text(col))
	}
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}
