package api

import "context"

// ListEmbeddingSets returns every published embedding set, newest first.
func (s *Service) ListEmbeddingSets(ctx context.Context) ([]EmbeddingSetView, error) {
	sets, err := s.store.ListEmbeddingSets(ctx)
	if err != nil {
		return nil, err
	}
	return FromEmbeddingSets(sets), nil
}

// DescribeEmbeddingSet fetches one embedding set, returning nil when absent.
func (s *Service) DescribeEmbeddingSet(ctx context.Context, id string) (*EmbeddingSetView, error) {
	set, err := s.store.GetEmbeddingSet(ctx, id)
	if err != nil || set == nil {
		return nil, err
	}
	view := FromEmbeddingSet(set)
	return &view, nil
}
