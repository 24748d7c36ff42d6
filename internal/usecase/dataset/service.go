// Package dataset walks a directory of binaries and extracts attribute rows
// into a tabular sink, with per-file error reporting: one bad sample never
// aborts the batch.
package dataset

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	ds "github.com/osprey-sec/malscan/internal/dataset"
)

// FileError records one sample that failed extraction.
type FileError struct {
	Path string
	Err  error
}

// Report summarizes one extraction run.
type Report struct {
	Processed int
	Written   int
	Failures  []FileError
}

// Service coordinates parallel extraction into a sink.
type Service struct {
	read    ReadFunc
	extract ExtractFunc
	workers int
	logger  *zap.Logger
}

// New creates a Service with the given parallelism.
func New(read ReadFunc, extract ExtractFunc, workers int, logger *zap.Logger) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{read: read, extract: extract, workers: workers, logger: logger}
}

// Run extracts every regular file under root into sink. Extraction failures
// are collected in the report; sink and filesystem walk failures abort.
func (s *Service) Run(ctx context.Context, root string, sink Sink) (Report, error) {
	paths, err := listFiles(root)
	if err != nil {
		return Report{}, err
	}

	var report Report
	report.Processed = len(paths)

	var mu sync.Mutex
	fail := func(path string, err error) {
		s.logger.Warn("Extraction failed", zap.String("path", path), zap.Error(err))
		mu.Lock()
		report.Failures = append(report.Failures, FileError{Path: path, Err: err})
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan string)
	rows := make(chan ds.Row)

	g.Go(func() error {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var workers sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for path := range jobs {
				row, err := s.extractOne(path)
				if err != nil {
					fail(path, err)
					continue
				}
				select {
				case rows <- row:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		workers.Wait()
		close(rows)
	}()

	g.Go(func() error {
		for row := range rows {
			if err := sink.Append(row); err != nil {
				return fmt.Errorf("append %s: %w", row.Path, err)
			}
			mu.Lock()
			report.Written++
			mu.Unlock()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func (s *Service) extractOne(path string) (ds.Row, error) {
	data, err := s.read(path)
	if err != nil {
		return ds.Row{}, err
	}
	attrs, err := s.extract(data)
	if err != nil {
		return ds.Row{}, err
	}
	return ds.Row{Path: path, Attrs: attrs}, nil
}

// listFiles collects regular files under root in walk order.
func listFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}
