package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// InsertEmbeddingSet records a published artifact. When another execution
// already published the same (audio, signature) pair, the existing row is
// returned; idempotent re-execution after a stale recovery must not fail.
func (s *Store) InsertEmbeddingSet(ctx context.Context, set *EmbeddingSet) (*EmbeddingSet, error) {
	ctx = ensureContext(ctx)
	if set == nil {
		return nil, errors.New("embedding set must not be nil")
	}
	if set.AudioFileID == "" || set.EncodingSignature == "" {
		return nil, errors.New("embedding set requires audio file id and encoding signature")
	}

	id := set.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.execWithRetry(ctx,
		"INSERT INTO embedding_sets (id, audio_file_id, encoding_signature, model_name, window_seconds, sample_rate, vector_dim, artifact_path, row_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id,
		set.AudioFileID,
		set.EncodingSignature,
		set.ModelName,
		set.WindowSeconds,
		set.SampleRate,
		set.VectorDim,
		set.ArtifactPath,
		set.RowCount,
		nowString(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.FindEmbeddingSet(ctx, set.AudioFileID, set.EncodingSignature)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("insert embedding set: %w", err)
	}
	return s.GetEmbeddingSet(ctx, id)
}

// GetEmbeddingSet fetches one embedding set by id, returning (nil, nil)
// when absent.
func (s *Store) GetEmbeddingSet(ctx context.Context, id string) (*EmbeddingSet, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+embeddingSetColumns+" FROM embedding_sets WHERE id = ?", id)
	set, err := scanEmbeddingSet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get embedding set: %w", err)
	}
	return set, nil
}

// FindEmbeddingSet looks up the embedding set for one audio file and
// encoding signature, returning (nil, nil) when absent. This is the
// idempotence check used at submission and at pipeline start.
func (s *Store) FindEmbeddingSet(ctx context.Context, audioFileID, encodingSignature string) (*EmbeddingSet, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+embeddingSetColumns+" FROM embedding_sets WHERE audio_file_id = ? AND encoding_signature = ?",
		audioFileID, encodingSignature)
	set, err := scanEmbeddingSet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find embedding set: %w", err)
	}
	return set, nil
}

// ListEmbeddingSets returns every embedding set, newest first.
func (s *Store) ListEmbeddingSets(ctx context.Context) ([]*EmbeddingSet, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+embeddingSetColumns+" FROM embedding_sets ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list embedding sets: %w", err)
	}
	defer rows.Close()

	var sets []*EmbeddingSet
	for rows.Next() {
		set, err := scanEmbeddingSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan embedding set: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedding sets: %w", err)
	}
	return sets, nil
}

// ListEmbeddingSetsByIDs fetches the given embedding sets preserving input
// order. Missing ids are simply absent from the result; callers decide
// whether that is fatal.
func (s *Store) ListEmbeddingSetsByIDs(ctx context.Context, ids []string) ([]*EmbeddingSet, error) {
	ctx = ensureContext(ctx)
	if len(ids) == 0 {
		return nil, nil
	}

	query := "SELECT " + embeddingSetColumns + " FROM embedding_sets WHERE id IN (" + makePlaceholders(len(ids)) + ")"
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list embedding sets by id: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*EmbeddingSet, len(ids))
	for rows.Next() {
		set, err := scanEmbeddingSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan embedding set: %w", err)
		}
		byID[set.ID] = set
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedding sets: %w", err)
	}

	ordered := make([]*EmbeddingSet, 0, len(byID))
	for _, id := range ids {
		if set, ok := byID[id]; ok {
			ordered = append(ordered, set)
		}
	}
	return ordered, nil
}
