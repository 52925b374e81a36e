package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Layout resolves artifact paths beneath a single storage root.
type Layout struct {
	root string
}

// NewLayout wraps the given storage root. The root does not need to exist
// yet; directories are created when artifacts are written.
func NewLayout(root string) (*Layout, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	return &Layout{root: filepath.Clean(root)}, nil
}

// Root returns the storage root directory.
func (l *Layout) Root() string {
	return l.root
}

// AudioDir returns the directory holding the ingested original for an audio
// file.
func (l *Layout) AudioDir(audioFileID string) string {
	return filepath.Join(l.root, "audio", "raw", audioFileID)
}

// AudioOriginalPath returns the canonical path for an ingested original with
// the given extension.
func (l *Layout) AudioOriginalPath(audioFileID, ext string) string {
	return filepath.Join(l.AudioDir(audioFileID), "original."+normalizeExtension(ext))
}

// FindAudioOriginal locates the ingested original for an audio file without
// knowing its extension. Returns a wrapped os.ErrNotExist when nothing has
// been ingested.
func (l *Layout) FindAudioOriginal(audioFileID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(l.AudioDir(audioFileID), "original.*"))
	if err != nil {
		return "", fmt.Errorf("scan audio dir: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no original audio stored for %s: %w", audioFileID, os.ErrNotExist)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// EmbeddingPath returns the Parquet dataset path for one (model, audio,
// signature) combination. The model name is reduced to a filesystem-safe
// token; ids and signatures are already safe.
func (l *Layout) EmbeddingPath(modelName, audioFileID, signature string) string {
	return filepath.Join(l.root, "embeddings", safePathToken(modelName), audioFileID, signature+".parquet")
}

// ClusterDir returns the artifact directory for one clustering job.
func (l *Layout) ClusterDir(jobID string) string {
	return filepath.Join(l.root, "clusters", jobID)
}

// ClusterSummaryPath returns the clusters.json path for one clustering job.
func (l *Layout) ClusterSummaryPath(jobID string) string {
	return filepath.Join(l.ClusterDir(jobID), "clusters.json")
}

// ProjectionPath returns the 2-D projection dataset path for one clustering
// job.
func (l *Layout) ProjectionPath(jobID string) string {
	return filepath.Join(l.ClusterDir(jobID), "projection.parquet")
}

// normalizeExtension reduces a filename or extension to a bare lowercase
// extension with no dot. Inputs without an extension fall back to "bin".
func normalizeExtension(name string) string {
	ext := name
	if strings.ContainsAny(name, "/\\.") {
		ext = filepath.Ext(name)
	}
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return "bin"
	}
	return ext
}

// safePathToken converts a value to a lowercase filesystem-safe path
// component. Letters are lowercased, digits and hyphens/underscores are
// kept, everything else becomes an underscore. Returns "unknown" for empty
// input.
func safePathToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
