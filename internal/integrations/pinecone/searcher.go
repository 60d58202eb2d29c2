package pinecone

import (
	"context"
	"errors"
	"fmt"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

type embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type index interface {
	Query(ctx context.Context, vector []float64, resourceIDs []string, topK int) ([]domain.SearchMatch, error)
}

// Searcher turns a text query into an embedding and runs it against the
// index.
type Searcher struct {
	embed embedder
	index index
}

func NewSearcher(embed embedder, idx index) (*Searcher, error) {
	if embed == nil {
		return nil, errors.New("pinecone: embedder must not be nil")
	}
	if idx == nil {
		return nil, errors.New("pinecone: index must not be nil")
	}
	return &Searcher{embed: embed, index: idx}, nil
}

func (s *Searcher) Search(ctx context.Context, query string, resourceIDs []string, topK int) ([]domain.SearchMatch, error) {
	vector, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pinecone: embed query: %w", err)
	}
	return s.index.Query(ctx, vector, resourceIDs, topK)
}
