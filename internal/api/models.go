package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finback/internal/queue"
)

// CreateModelRequest registers an embedding model. Runtime defaults to
// synthetic; vector dim and input format fall back to the configured model
// defaults.
type CreateModelRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Runtime     string `json:"runtime,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	VectorDim   int    `json:"vectorDim,omitempty"`
	InputFormat string `json:"inputFormat,omitempty"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

// CreateModel validates and registers an embedding model.
func (s *Service) CreateModel(ctx context.Context, req CreateModelRequest) (*ModelConfigView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: model name is required", ErrInvalid)
	}

	runtime := strings.ToLower(strings.TrimSpace(req.Runtime))
	if runtime == "" {
		runtime = queue.RuntimeSynthetic
	}
	switch runtime {
	case queue.RuntimeSynthetic, queue.RuntimeHTTP:
	default:
		return nil, fmt.Errorf("%w: unknown runtime %q", ErrInvalid, req.Runtime)
	}
	endpoint := strings.TrimSpace(req.Endpoint)
	if runtime == queue.RuntimeHTTP && endpoint == "" {
		return nil, fmt.Errorf("%w: http models require an endpoint", ErrInvalid)
	}

	inputFormat := strings.ToLower(strings.TrimSpace(req.InputFormat))
	if inputFormat == "" {
		inputFormat = s.cfg.Model.InputFormat
	}
	switch inputFormat {
	case queue.InputWaveform, queue.InputSpectrogram:
	default:
		return nil, fmt.Errorf("%w: unknown input format %q", ErrInvalid, req.InputFormat)
	}

	vectorDim := req.VectorDim
	if vectorDim <= 0 {
		vectorDim = s.cfg.Model.VectorDim
	}

	model, err := s.store.CreateModelConfig(ctx, &queue.ModelConfig{
		Name:        name,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Runtime:     runtime,
		Endpoint:    endpoint,
		VectorDim:   vectorDim,
		InputFormat: inputFormat,
		Description: strings.TrimSpace(req.Description),
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		if errors.Is(err, queue.ErrModelExists) {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return nil, err
	}
	view := FromModelConfig(model)
	return &view, nil
}

// ListModels returns every registered model ordered by name.
func (s *Service) ListModels(ctx context.Context) ([]ModelConfigView, error) {
	models, err := s.store.ListModelConfigs(ctx)
	if err != nil {
		return nil, err
	}
	return FromModelConfigs(models), nil
}

// DefaultModelName reports the model a submission without an explicit model
// name would use: the registry default when one exists, otherwise the
// configured fallback.
func (s *Service) DefaultModelName(ctx context.Context) (string, error) {
	model, err := s.store.DefaultModelConfig(ctx)
	if err != nil {
		return "", err
	}
	if model != nil {
		return model.Name, nil
	}
	return s.cfg.Model.DefaultName, nil
}
