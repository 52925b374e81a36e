package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLayoutRequiresRoot(t *testing.T) {
	if _, err := NewLayout("   "); err == nil {
		t.Fatal("expected error for blank root")
	}
}

func TestLayoutPaths(t *testing.T) {
	layout, err := NewLayout("/srv/finback")
	if err != nil {
		t.Fatal(err)
	}

	got := layout.AudioOriginalPath("a1", "Whale Song.WAV")
	want := filepath.Join("/srv/finback", "audio", "raw", "a1", "original.wav")
	if got != want {
		t.Fatalf("audio path = %q, want %q", got, want)
	}

	got = layout.EmbeddingPath("Whale/FP16 v2", "a1", "deadbeef")
	want = filepath.Join("/srv/finback", "embeddings", "whale_fp16_v2", "a1", "deadbeef.parquet")
	if got != want {
		t.Fatalf("embedding path = %q, want %q", got, want)
	}

	if got := layout.ClusterSummaryPath("j1"); got != filepath.Join("/srv/finback", "clusters", "j1", "clusters.json") {
		t.Fatalf("summary path = %q", got)
	}
	if got := layout.ProjectionPath("j1"); got != filepath.Join("/srv/finback", "clusters", "j1", "projection.parquet") {
		t.Fatalf("projection path = %q", got)
	}
}

func TestNormalizeExtension(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"song.WAV", "wav"},
		{".flac", "flac"},
		{"mp3", "mp3"},
		{"archive.tar.gz", "gz"},
		{"noext", "noext"},
		{"dir/file", "bin"},
		{"", "bin"},
	}
	for _, tc := range cases {
		if got := normalizeExtension(tc.in); got != tc.want {
			t.Errorf("normalizeExtension(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFindAudioOriginal(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	_, err = layout.FindAudioOriginal("missing")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}

	path := layout.AudioOriginalPath("a1", "call.flac")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := layout.FindAudioOriginal("a1")
	if err != nil {
		t.Fatal(err)
	}
	if found != path {
		t.Fatalf("found %q, want %q", found, path)
	}
}

func TestSafePathToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"multispecies_whale_fp16", "multispecies_whale_fp16"},
		{"Whale FP16", "whale_fp16"},
		{"../../etc", "etc"},
		{"", "unknown"},
		{"///", "unknown"},
	}
	for _, tc := range cases {
		if got := safePathToken(tc.in); got != tc.want {
			t.Errorf("safePathToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
