package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ds "github.com/osprey-sec/malscan/internal/dataset"
	"github.com/osprey-sec/malscan/internal/domain"
)

// memSink collects appended rows in memory.
type memSink struct {
	mu   sync.Mutex
	rows []ds.Row
	err  error
}

func (m *memSink) Append(row ds.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memSink) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, filepath.Base(r.Path))
	}
	sort.Strings(out)
	return out
}

func writeFiles(t *testing.T, names map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

// extractOK accepts anything starting with MZ, fails otherwise.
func extractOK(data []byte) (*domain.AttributeSet, error) {
	if len(data) < 2 || data[0] != 'M' || data[1] != 'Z' {
		return nil, domain.ErrMalformedFormat
	}
	a := domain.NewAttributeSet()
	a.SetInt("size", int64(len(data)))
	return a, nil
}

func readPlain(path string) ([]byte, error) { return os.ReadFile(path) }

func TestRun_AllFilesExtracted(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.exe": "MZaaaa",
		"b.exe": "MZbbbb",
		"c.exe": "MZcccc",
	})

	svc := New(readPlain, extractOK, 2, zap.NewNop())
	sink := &memSink{}

	report, err := svc.Run(context.Background(), dir, sink)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 3, report.Written)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []string{"a.exe", "b.exe", "c.exe"}, sink.paths())
}

func TestRun_BadFilesReportedNotFatal(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.exe":  "MZgood",
		"bad.txt":   "not a binary",
		"empty.bin": "",
	})

	svc := New(readPlain, extractOK, 2, zap.NewNop())
	sink := &memSink{}

	report, err := svc.Run(context.Background(), dir, sink)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Written)
	assert.Len(t, report.Failures, 2)
	assert.Equal(t, []string{"good.exe"}, sink.paths())

	for _, f := range report.Failures {
		assert.ErrorIs(t, f.Err, domain.ErrMalformedFormat)
	}
}

func TestRun_SinkErrorAborts(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.exe": "MZaaaa",
		"b.exe": "MZbbbb",
	})

	svc := New(readPlain, extractOK, 1, zap.NewNop())
	sink := &memSink{err: errors.New("disk full")}

	_, err := svc.Run(context.Background(), dir, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRun_MissingDir(t *testing.T) {
	svc := New(readPlain, extractOK, 1, zap.NewNop())
	_, err := svc.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), &memSink{})
	require.Error(t, err)
}

func TestRun_ReadErrorReported(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.exe": "MZaaaa"})

	failingRead := func(string) ([]byte, error) { return nil, domain.ErrUnreadableInput }
	svc := New(failingRead, extractOK, 1, zap.NewNop())
	sink := &memSink{}

	report, err := svc.Run(context.Background(), dir, sink)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Written)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, domain.ErrUnreadableInput)
}

func TestRun_RecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.exe"), []byte("MZaaaa"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.exe"), []byte("MZbbbb"), 0o600))

	svc := New(readPlain, extractOK, 2, zap.NewNop())
	sink := &memSink{}

	report, err := svc.Run(context.Background(), dir, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, []string{"a.exe", "b.exe"}, sink.paths())
}
