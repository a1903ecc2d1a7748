package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Writer renders jennifer files and writes them to the target directory
// in parallel.
type Writer struct {
	outDir  string
	workers int

	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation output.
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
}

// fileTask is a single file generation task.
type fileTask struct {
	name   string // output file path (relative to outDir)
	render func() *jen.File
}

// NewWriter creates a writer for the target directory.
func NewWriter(outDir string, workers int) *Writer {
	if workers <= 0 {
		workers = 1
	}
	return &Writer{
		outDir:  outDir,
		workers: workers,
		metrics: &WriterMetrics{},
	}
}

// Metrics returns the generation metrics.
func (w *Writer) Metrics() *WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := *w.metrics
	return &m
}

// writeAll renders and writes all files, stopping at the first failure.
func (w *Writer) writeAll(ctx context.Context, files []fileTask) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return NewGenerationError("write", w.outDir, "create output directory", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeFile(f)
			}
		})
	}
	return eg.Wait()
}

// writeFile renders a single file.
func (w *Writer) writeFile(f fileTask) error {
	// 1. Render
	var buf bytes.Buffer
	if err := f.render().Render(&buf); err != nil {
		return NewGenerationError("render", f.name, "", err)
	}

	// 2. Format using goimports
	fullPath := filepath.Join(w.outDir, f.name)
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output around for debugging.
		debugPath := fullPath + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError("format", f.name, "unformatted output written to "+debugPath, err)
	}

	// 3. Write
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return NewGenerationError("write", f.name, "", err)
	}

	w.mu.Lock()
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(formatted))
	w.mu.Unlock()
	return nil
}
