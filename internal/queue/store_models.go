package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrModelExists reports an attempt to register a model name twice.
var ErrModelExists = errors.New("model already registered")

// CreateModelConfig registers an embedding model. When the model is marked
// default, the previous default is cleared in the same transaction.
func (s *Store) CreateModelConfig(ctx context.Context, model *ModelConfig) (*ModelConfig, error) {
	ctx = ensureContext(ctx)
	if model == nil {
		return nil, errors.New("model config must not be nil")
	}
	name := strings.TrimSpace(model.Name)
	if name == "" {
		return nil, errors.New("model name must not be empty")
	}

	id := model.ID
	if id == "" {
		id = uuid.NewString()
	}
	displayName := model.DisplayName
	if displayName == "" {
		displayName = name
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin model tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if model.IsDefault {
		if _, err := tx.ExecContext(ctx, "UPDATE model_configs SET is_default = 0 WHERE is_default = 1"); err != nil {
			return nil, fmt.Errorf("clear default model: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO model_configs (id, name, display_name, runtime, endpoint, vector_dim, input_format, description, is_default, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id,
		name,
		displayName,
		model.Runtime,
		nullableString(model.Endpoint),
		model.VectorDim,
		model.InputFormat,
		nullableString(model.Description),
		boolToInt(model.IsDefault),
		nowString(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("model %q: %w", name, ErrModelExists)
		}
		return nil, fmt.Errorf("insert model config: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit model tx: %w", err)
	}

	return s.GetModelConfigByName(ctx, name)
}

// GetModelConfigByName fetches one model by unique name, returning
// (nil, nil) when absent.
func (s *Store) GetModelConfigByName(ctx context.Context, name string) (*ModelConfig, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+modelConfigColumns+" FROM model_configs WHERE name = ?", name)
	model, err := scanModelConfig(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get model config: %w", err)
	}
	return model, nil
}

// DefaultModelConfig returns the model flagged as default, or (nil, nil)
// when no default exists.
func (s *Store) DefaultModelConfig(ctx context.Context) (*ModelConfig, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+modelConfigColumns+" FROM model_configs WHERE is_default = 1 LIMIT 1")
	model, err := scanModelConfig(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get default model config: %w", err)
	}
	return model, nil
}

// ListModelConfigs returns every registered model ordered by name.
func (s *Store) ListModelConfigs(ctx context.Context) ([]*ModelConfig, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+modelConfigColumns+" FROM model_configs ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list model configs: %w", err)
	}
	defer rows.Close()

	var models []*ModelConfig
	for rows.Next() {
		model, err := scanModelConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model config: %w", err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model configs: %w", err)
	}
	return models, nil
}

// SeedDefaultModelConfig inserts the given model as the default when the
// registry is empty. Reports whether a row was inserted.
func (s *Store) SeedDefaultModelConfig(ctx context.Context, model *ModelConfig) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM model_configs").Scan(&count); err != nil {
		return false, fmt.Errorf("count model configs: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	seeded := *model
	seeded.IsDefault = true
	if _, err := s.CreateModelConfig(ctx, &seeded); err != nil {
		// A concurrent daemon may have seeded first; that is not a failure.
		if isUniqueViolation(err) || errors.Is(err, ErrModelExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
