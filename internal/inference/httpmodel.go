package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPModel forwards embedding batches to a remote inference server.
//
// The server exposes POST <endpoint>/embed taking {"windows": [[...]]} and
// returning {"vectors": [[...]]} with one vector per window, in order.
type HTTPModel struct {
	embedURL  string
	vectorDim int
	client    *http.Client
}

// Compile-time check that HTTPModel implements Model.
var _ Model = (*HTTPModel)(nil)

type embedRequest struct {
	Windows [][]float32 `json:"windows"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// NewHTTPModel creates a remote model client for the given server endpoint.
func NewHTTPModel(endpoint string, vectorDim int, timeout time.Duration) (*HTTPModel, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("inference endpoint is required")
	}
	if vectorDim <= 0 {
		return nil, fmt.Errorf("vector dim must be positive, got %d", vectorDim)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPModel{
		embedURL:  endpoint + "/embed",
		vectorDim: vectorDim,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// VectorDim returns the embedding width the server is expected to produce.
func (m *HTTPModel) VectorDim() int {
	return m.vectorDim
}

// Embed posts the batch and verifies the response shape.
func (m *HTTPModel) Embed(ctx context.Context, batch [][]float32) ([][]float32, error) {
	if len(batch) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embedRequest{Windows: batch})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.embedURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(decoded.Vectors) != len(batch) {
		return nil, fmt.Errorf("vector count mismatch: got %d, want %d", len(decoded.Vectors), len(batch))
	}
	for i, vector := range decoded.Vectors {
		if len(vector) != m.vectorDim {
			return nil, fmt.Errorf("vector %d dimension mismatch: got %d, want %d", i, len(vector), m.vectorDim)
		}
	}
	return decoded.Vectors, nil
}
