package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// DefaultBatchSize is the number of buffered rows that triggers a flush to
// the temp file.
const DefaultBatchSize = 50

type embeddingRow struct {
	RowIndex  int32     `parquet:"row_index"`
	Embedding []float32 `parquet:"embedding"`
}

// Writer accumulates fixed-width embedding vectors and publishes them as a
// single Parquet file. Rows are flushed to <dest>.tmp.parquet in batches;
// Close finalizes the footer and renames the temp file onto the
// destination. Writer is not safe for concurrent use.
type Writer struct {
	finalPath string
	tempPath  string
	vectorDim int
	batchSize int

	file   *os.File
	writer *parquet.GenericWriter[embeddingRow]
	buffer []embeddingRow
	total  int
	closed bool
}

// NewWriter prepares a writer targeting finalPath. Vectors passed to Add
// must have exactly vectorDim elements. A batchSize of zero or less selects
// DefaultBatchSize. No file is created until the first flush.
func NewWriter(finalPath string, vectorDim, batchSize int) (*Writer, error) {
	if vectorDim <= 0 {
		return nil, fmt.Errorf("vector dim must be positive, got %d", vectorDim)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Writer{
		finalPath: finalPath,
		tempPath:  stagingPath(finalPath),
		vectorDim: vectorDim,
		batchSize: batchSize,
	}, nil
}

// stagingPath places the temp file beside the destination so the final
// rename stays on one filesystem.
func stagingPath(finalPath string) string {
	ext := filepath.Ext(finalPath)
	if ext == "" {
		return finalPath + ".tmp"
	}
	return strings.TrimSuffix(finalPath, ext) + ".tmp" + ext
}

// Add buffers one embedding row, flushing to the temp file when the batch
// threshold is reached. Row indexes are assigned in call order.
func (w *Writer) Add(vector []float32) error {
	if w.closed {
		return fmt.Errorf("artifact writer for %s is closed", w.finalPath)
	}
	if len(vector) != w.vectorDim {
		return fmt.Errorf("embedding width %d does not match vector dim %d", len(vector), w.vectorDim)
	}
	w.buffer = append(w.buffer, embeddingRow{
		RowIndex:  int32(w.total),
		Embedding: append([]float32(nil), vector...),
	})
	w.total++
	if len(w.buffer) >= w.batchSize {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if w.writer == nil {
		if dir := filepath.Dir(w.finalPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create artifact directory: %w", err)
			}
		}
		file, err := os.OpenFile(w.tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("create temp artifact: %w", err)
		}
		w.file = file
		w.writer = parquet.NewGenericWriter[embeddingRow](file)
	}
	if _, err := w.writer.Write(w.buffer); err != nil {
		return fmt.Errorf("write artifact rows: %w", err)
	}
	// Each batch becomes its own row group so partially written temp files
	// stay bounded by one batch.
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush artifact row group: %w", err)
	}
	w.buffer = w.buffer[:0]
	return nil
}

// TotalRows reports the rows accepted so far, including any still buffered.
func (w *Writer) TotalRows() int {
	return w.total
}

// Close flushes remaining rows, finalizes the Parquet footer, and atomically
// renames the temp file onto the destination, returning the destination
// path. When no rows were ever added no file is created. The writer cannot
// be reused afterward.
func (w *Writer) Close() (string, error) {
	if w.closed {
		return "", fmt.Errorf("artifact writer for %s is closed", w.finalPath)
	}
	w.closed = true
	if err := w.flush(); err != nil {
		w.cleanup()
		return "", err
	}
	if w.writer == nil {
		return w.finalPath, nil
	}
	if err := w.writer.Close(); err != nil {
		w.cleanup()
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	file := w.file
	w.file = nil
	w.writer = nil
	if err := file.Close(); err != nil {
		w.cleanup()
		return "", fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		w.cleanup()
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return w.finalPath, nil
}

// Discard abandons any staged data after a failure. Calling it after a
// successful Close is a no-op; the published artifact is never removed.
func (w *Writer) Discard() {
	if w.closed && w.file == nil {
		return
	}
	w.closed = true
	w.buffer = nil
	w.cleanup()
}

func (w *Writer) cleanup() {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
		w.writer = nil
	}
	_ = os.Remove(w.tempPath)
}

// WriteFileAtomic writes rows as a Parquet file using the same temp-file and
// rename discipline as Writer. Used for one-shot side artifacts.
func WriteFileAtomic[T any](path string, rows []T) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact directory: %w", err)
		}
	}
	temp := stagingPath(path)
	file, err := os.OpenFile(temp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = file.Close()
		_ = os.Remove(temp)
		return fmt.Errorf("write artifact rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(temp)
		return fmt.Errorf("finalize artifact: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}
