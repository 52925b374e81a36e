package artifact_test

import (
	"os"
	"path/filepath"
	"testing"

	"finback/internal/artifact"
)

func testVector(dim int, seed float32) []float32 {
	vector := make([]float32, dim)
	for i := range vector {
		vector[i] = seed + float32(i)
	}
	return vector
}

func TestWriterPublishesAllRowsInOrder(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "model", "audio", "sig.parquet")

	writer, err := artifact.NewWriter(dest, 4, 2)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := writer.Add(testVector(4, float32(i)*10)); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if writer.TotalRows() != 5 {
		t.Fatalf("TotalRows = %d, want 5", writer.TotalRows())
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("destination exists before Close")
	}

	path, err := writer.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if path != dest {
		t.Fatalf("Close returned %q, want %q", path, dest)
	}
	if _, err := os.Stat(filepath.Join(dir, "model", "audio", "sig.tmp.parquet")); !os.IsNotExist(err) {
		t.Fatal("temp file survived Close")
	}

	matrix, err := artifact.ReadEmbeddings(dest)
	if err != nil {
		t.Fatalf("ReadEmbeddings: %v", err)
	}
	if len(matrix) != 5 {
		t.Fatalf("read %d rows, want 5", len(matrix))
	}
	for i, row := range matrix {
		if len(row) != 4 {
			t.Fatalf("row %d width %d, want 4", i, len(row))
		}
		if row[0] != float32(i)*10 {
			t.Fatalf("row %d out of order: first element %v", i, row[0])
		}
	}
}

func TestWriterDiscardLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "sig.parquet")

	writer, err := artifact.NewWriter(dest, 3, 2)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := writer.Add(testVector(3, 1)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	writer.Discard()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty directory after Discard, found %d entries", len(entries))
	}
	if err := writer.Add(testVector(3, 1)); err == nil {
		t.Fatal("Add after Discard should fail")
	}
}

func TestWriterZeroRowsCreatesNoFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "sig.parquet")

	writer, err := artifact.NewWriter(dest, 3, 0)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	path, err := writer.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if path != dest {
		t.Fatalf("Close returned %q, want %q", path, dest)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatal("zero-row writer should not create files")
	}
}

func TestWriterRejectsWrongWidth(t *testing.T) {
	writer, err := artifact.NewWriter(filepath.Join(t.TempDir(), "sig.parquet"), 4, 0)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := writer.Add(testVector(3, 0)); err == nil {
		t.Fatal("expected error for narrow vector")
	}
	if err := writer.Add(testVector(5, 0)); err == nil {
		t.Fatal("expected error for wide vector")
	}
	if writer.TotalRows() != 0 {
		t.Fatalf("rejected rows were counted: %d", writer.TotalRows())
	}
}

func TestWriterBuffersUntilBatchThreshold(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "sig.parquet")

	writer, err := artifact.NewWriter(dest, 2, 50)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := writer.Add(testVector(2, 7)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatal("buffered row should not touch disk before the batch threshold")
	}
	if writer.TotalRows() != 1 {
		t.Fatalf("TotalRows = %d, want 1", writer.TotalRows())
	}

	if _, err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	matrix, err := artifact.ReadEmbeddings(dest)
	if err != nil {
		t.Fatalf("ReadEmbeddings: %v", err)
	}
	if len(matrix) != 1 || matrix[0][0] != 7 {
		t.Fatalf("unexpected published contents: %v", matrix)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	type point struct {
		X     float32 `parquet:"x"`
		Y     float32 `parquet:"y"`
		Label int32   `parquet:"label"`
	}
	dest := filepath.Join(t.TempDir(), "nested", "projection.parquet")
	rows := []point{{1, 2, 0}, {3, 4, -1}}
	if err := artifact.WriteFileAtomic(dest, rows); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "projection.tmp.parquet")); !os.IsNotExist(err) {
		t.Fatal("temp file survived WriteFileAtomic")
	}
}
