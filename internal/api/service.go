package api

import (
	"errors"

	"finback/internal/config"
	"finback/internal/queue"
	"finback/internal/storage"
)

// ErrInvalid marks request validation failures so transport layers can
// answer with a client error instead of a server error.
var ErrInvalid = errors.New("invalid request")

// Service implements the submission and query operations shared by the CLI
// and the HTTP API. All state lives in the queue store and the storage
// layout; the service itself is stateless.
type Service struct {
	cfg    *config.Config
	store  *queue.Store
	layout *storage.Layout
}

// NewService constructs a Service over the given store and storage layout.
func NewService(cfg *config.Config, store *queue.Store, layout *storage.Layout) *Service {
	return &Service{cfg: cfg, store: store, layout: layout}
}
