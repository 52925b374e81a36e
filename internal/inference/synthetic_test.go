package inference_test

import (
	"context"
	"testing"

	"finback/internal/inference"
)

func TestSyntheticEmbedIsDeterministic(t *testing.T) {
	model, err := inference.NewSynthetic(16)
	if err != nil {
		t.Fatalf("NewSynthetic: %v", err)
	}
	if model.VectorDim() != 16 {
		t.Fatalf("VectorDim = %d, want 16", model.VectorDim())
	}

	batch := [][]float32{
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
		{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2},
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
	}

	first, err := model.Embed(context.Background(), batch)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := model.Embed(context.Background(), batch)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(first) != len(batch) {
		t.Fatalf("vector count = %d, want %d", len(first), len(batch))
	}
	for i := range first {
		if len(first[i]) != 16 {
			t.Fatalf("vector %d width = %d, want 16", i, len(first[i]))
		}
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("embedding not deterministic at [%d][%d]", i, j)
			}
		}
	}

	// Identical windows embed identically; differing windows diverge.
	for j := range first[0] {
		if first[0][j] != first[2][j] {
			t.Fatalf("identical windows produced different vectors at %d", j)
		}
	}
	same := true
	for j := range first[0] {
		if first[0][j] != first[1][j] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different windows produced identical vectors")
	}
}

func TestSyntheticEmptyBatch(t *testing.T) {
	model, err := inference.NewSynthetic(4)
	if err != nil {
		t.Fatalf("NewSynthetic: %v", err)
	}
	vectors, err := model.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 0 {
		t.Fatalf("expected no vectors, got %d", len(vectors))
	}
}

func TestSyntheticRejectsZeroDim(t *testing.T) {
	if _, err := inference.NewSynthetic(0); err == nil {
		t.Fatal("expected error for zero vector dim")
	}
}
