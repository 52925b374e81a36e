package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// IngestAudioRequest carries one uploaded recording.
type IngestAudioRequest struct {
	Filename   string
	FolderPath string
	Source     io.Reader
}

// IngestAudio stores an uploaded recording, deduplicating by content hash.
// Re-uploading identical bytes returns the existing row with created=false.
// When a deduplicated row's stored original has gone missing from storage,
// the payload is restored from this upload.
func (s *Service) IngestAudio(ctx context.Context, req IngestAudioRequest) (*AudioFileView, bool, error) {
	if req.Source == nil {
		return nil, false, fmt.Errorf("%w: upload payload is required", ErrInvalid)
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = "unknown.wav"
	}

	scratch, err := os.CreateTemp("", "finback-ingest-*")
	if err != nil {
		return nil, false, fmt.Errorf("create upload scratch file: %w", err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(scratch, hasher), req.Source)
	closeErr := scratch.Close()
	if err != nil {
		return nil, false, fmt.Errorf("read upload: %w", err)
	}
	if closeErr != nil {
		return nil, false, fmt.Errorf("flush upload: %w", closeErr)
	}
	if written == 0 {
		return nil, false, fmt.Errorf("%w: upload is empty", ErrInvalid)
	}
	checksum := hex.EncodeToString(hasher.Sum(nil))

	file, created, err := s.store.EnsureAudioFile(ctx, filename, normalizeFolderPath(req.FolderPath), checksum)
	if err != nil {
		return nil, false, err
	}

	ingest := created
	if !created {
		if _, err := s.layout.FindAudioOriginal(file.ID); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, false, err
			}
			ingest = true
		}
	}
	if ingest {
		// The stored extension comes from the row's filename so repeated
		// uploads under different names keep one canonical original.
		if _, err := s.layout.IngestAudio(scratchPath, file.ID, file.Filename); err != nil {
			return nil, false, fmt.Errorf("store audio payload: %w", err)
		}
	}

	view := FromAudioFile(file)
	return &view, created, nil
}

// ListAudioFiles returns every ingested recording, newest first.
func (s *Service) ListAudioFiles(ctx context.Context) ([]AudioFileView, error) {
	files, err := s.store.ListAudioFiles(ctx)
	if err != nil {
		return nil, err
	}
	return FromAudioFiles(files), nil
}

// DescribeAudioFile fetches one recording, returning nil when absent.
func (s *Service) DescribeAudioFile(ctx context.Context, id string) (*AudioFileView, error) {
	file, err := s.store.GetAudioFile(ctx, id)
	if err != nil || file == nil {
		return nil, err
	}
	view := FromAudioFile(file)
	return &view, nil
}

// normalizeFolderPath reduces a user-supplied folder path to a canonical
// slash-separated relative form: separators collapsed, leading and trailing
// slashes dropped.
func normalizeFolderPath(raw string) string {
	parts := strings.FieldsFunc(strings.TrimSpace(raw), func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return strings.Join(parts, "/")
}
