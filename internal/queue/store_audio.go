package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EnsureAudioFile inserts a new audio row or returns the existing row with
// the same checksum. The boolean reports whether a new row was created.
func (s *Store) EnsureAudioFile(ctx context.Context, filename, folderPath, checksum string) (*AudioFile, bool, error) {
	ctx = ensureContext(ctx)
	if checksum == "" {
		return nil, false, errors.New("audio checksum must not be empty")
	}

	existing, err := s.GetAudioFileByChecksum(ctx, checksum)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	id := uuid.NewString()
	_, err = s.execWithRetry(ctx,
		"INSERT INTO audio_files (id, filename, folder_path, checksum_sha256, created_at) VALUES (?, ?, ?, ?, ?)",
		id, filename, folderPath, checksum, nowString(),
	)
	if err != nil {
		// Another process ingested the same bytes between our lookup and
		// insert; surface its row instead.
		if isUniqueViolation(err) {
			existing, lookupErr := s.GetAudioFileByChecksum(ctx, checksum)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("insert audio file: %w", err)
	}

	created, err := s.GetAudioFile(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// GetAudioFile fetches one audio row by id, returning (nil, nil) when absent.
func (s *Store) GetAudioFile(ctx context.Context, id string) (*AudioFile, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+audioFileColumns+" FROM audio_files WHERE id = ?", id)
	file, err := scanAudioFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audio file: %w", err)
	}
	return file, nil
}

// GetAudioFileByChecksum fetches one audio row by content checksum,
// returning (nil, nil) when absent.
func (s *Store) GetAudioFileByChecksum(ctx context.Context, checksum string) (*AudioFile, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+audioFileColumns+" FROM audio_files WHERE checksum_sha256 = ?", checksum)
	file, err := scanAudioFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get audio file by checksum: %w", err)
	}
	return file, nil
}

// ListAudioFiles returns every audio row, newest first.
func (s *Store) ListAudioFiles(ctx context.Context) ([]*AudioFile, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+audioFileColumns+" FROM audio_files ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list audio files: %w", err)
	}
	defer rows.Close()

	var files []*AudioFile
	for rows.Next() {
		file, err := scanAudioFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audio file: %w", err)
		}
		files = append(files, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audio files: %w", err)
	}
	return files, nil
}

// BackfillAudioMedia records duration and sample rate measured during
// decoding. Values already present are preserved.
func (s *Store) BackfillAudioMedia(ctx context.Context, id string, durationSeconds float64, sampleRate int) error {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		"UPDATE audio_files SET duration_seconds = COALESCE(duration_seconds, ?), sample_rate = COALESCE(sample_rate, ?) WHERE id = ?",
		durationSeconds, sampleRate, id,
	)
	if err != nil {
		return fmt.Errorf("backfill audio media: %w", err)
	}
	return nil
}
