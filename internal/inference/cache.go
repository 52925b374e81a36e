package inference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finback/internal/config"
	"finback/internal/queue"
)

// Cache loads models through the registry and shares them across jobs.
// Input format is resolved once at load time alongside the model, and
// entries never expire: loaded models live for the daemon's lifetime.
type Cache struct {
	store *queue.Store
	cfg   *config.Config

	mu     sync.Mutex
	loaded map[string]cacheEntry
}

type cacheEntry struct {
	model       Model
	inputFormat string
}

// NewCache creates a model cache backed by the given registry.
func NewCache(store *queue.Store, cfg *config.Config) *Cache {
	return &Cache{
		store:  store,
		cfg:    cfg,
		loaded: make(map[string]cacheEntry),
	}
}

// Get returns the model registered under name together with its input
// format. Unregistered names fall back to the configured default model
// settings, so jobs submitted before a model was registered still run.
func (c *Cache) Get(ctx context.Context, name string) (Model, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.loaded[name]; ok {
		return entry.model, entry.inputFormat, nil
	}

	registered, err := c.store.GetModelConfigByName(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("look up model %q: %w", name, err)
	}

	runtime := c.cfg.Model.Runtime
	endpoint := c.cfg.Model.Endpoint
	inputFormat := c.cfg.Model.InputFormat
	vectorDim := c.cfg.Model.VectorDim
	if registered != nil {
		runtime = registered.Runtime
		endpoint = registered.Endpoint
		inputFormat = registered.InputFormat
		vectorDim = registered.VectorDim
	}

	var model Model
	switch runtime {
	case queue.RuntimeSynthetic:
		model, err = NewSynthetic(vectorDim)
	case queue.RuntimeHTTP:
		model, err = NewHTTPModel(endpoint, vectorDim, time.Duration(c.cfg.Model.RequestTimeout)*time.Second)
	default:
		err = fmt.Errorf("unknown model runtime %q", runtime)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load model %q: %w", name, err)
	}

	c.loaded[name] = cacheEntry{model: model, inputFormat: inputFormat}
	return model, inputFormat, nil
}
