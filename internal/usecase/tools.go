package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

const (
	toolListResources   = "list_resources"
	toolRetrieveContext = "retrieve_context"
)

// VectorSearcher runs a similarity search over the indexed course documents.
// An empty resource filter is an unscoped search across all indexed content.
type VectorSearcher interface {
	Search(ctx context.Context, query string, resourceIDs []string, topK int) ([]domain.SearchMatch, error)
}

// LibraryStore resolves the resource ids bound to a syllabus.
type LibraryStore interface {
	GetResourceIDs(ctx context.Context, syllabusID string) ([]string, error)
}

// ResourceStore looks up resource metadata by id.
type ResourceStore interface {
	GetResource(ctx context.Context, resourceID string) (domain.Resource, error)
}

// toolSpecs is the fixed tool configuration offered to the model on every
// invocation. The model chooses at most one tool per turn.
func toolSpecs() []domain.ToolSpec {
	return []domain.ToolSpec{
		{
			Name:        toolListResources,
			Description: "Lista los títulos de los recursos didácticos disponibles para el curso actual.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        toolRetrieveContext,
			Description: "Busca fragmentos relevantes en los materiales del curso para responder la pregunta del usuario.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Consulta de búsqueda sobre los materiales del curso.",
					},
				},
				"required": []any{"query"},
			},
		},
	}
}

// Retriever implements the retrieve_context tool: it resolves the resource
// filter for the conversation scope and packages ranked similarity matches
// as numbered context chunks.
type Retriever struct {
	search  VectorSearcher
	library LibraryStore
	log     *slog.Logger
}

func NewRetriever(search VectorSearcher, library LibraryStore, log *slog.Logger) (*Retriever, error) {
	if search == nil {
		return nil, fmt.Errorf("usecase: vector searcher must not be nil")
	}
	if library == nil {
		return nil, fmt.Errorf("usecase: library store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Retriever{search: search, library: library, log: log}, nil
}

// Retrieve runs a scoped similarity search. An explicit resource list from
// the caller wins over the syllabus-bound lookup; a library lookup failure
// degrades to an unscoped search rather than failing the exchange. Matches
// scoring below minScore are dropped.
func (r *Retriever) Retrieve(ctx context.Context, query, syllabusID string, explicit []string, topK int, minScore float64) (map[string]domain.RetrievedChunk, error) {
	resourceIDs := explicit
	if len(resourceIDs) == 0 {
		ids, err := r.library.GetResourceIDs(ctx, syllabusID)
		if err != nil {
			r.log.Error("library lookup failed, searching unscoped", "syllabus_id", syllabusID, "err", err)
		} else {
			resourceIDs = ids
		}
	}

	matches, err := r.search.Search(ctx, query, resourceIDs, topK)
	if err != nil {
		return nil, fmt.Errorf("usecase: retrieve context: %w", err)
	}

	chunks := make(map[string]domain.RetrievedChunk, len(matches))
	n := 0
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		n++
		chunks[fmt.Sprintf("chunk_%d", n)] = domain.RetrievedChunk{
			Text:       normalizeWhitespace(m.Text),
			ResourceID: m.Metadata["resource_id"],
			Score:      m.Score,
		}
	}
	return chunks, nil
}

// Lister implements the list_resources tool: the syllabus-bound resource ids
// resolved to human-readable titles. Ids that fail to resolve are dropped
// with a log line, not surfaced.
type Lister struct {
	library   LibraryStore
	resources ResourceStore
	log       *slog.Logger
}

func NewLister(library LibraryStore, resources ResourceStore, log *slog.Logger) (*Lister, error) {
	if library == nil {
		return nil, fmt.Errorf("usecase: library store must not be nil")
	}
	if resources == nil {
		return nil, fmt.Errorf("usecase: resource store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Lister{library: library, resources: resources, log: log}, nil
}

// List returns the ordered titles of the resources bound to the syllabus,
// possibly empty.
func (l *Lister) List(ctx context.Context, syllabusID string) ([]string, error) {
	ids, err := l.library.GetResourceIDs(ctx, syllabusID)
	if err != nil {
		return nil, fmt.Errorf("usecase: list resources: %w", err)
	}

	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		res, err := l.resources.GetResource(ctx, id)
		if err != nil {
			l.log.Error("resource title lookup failed, dropping", "resource_id", id, "err", err)
			continue
		}
		if res.Title == "" {
			continue
		}
		titles = append(titles, res.Title)
	}
	return titles, nil
}

// formatResourceList renders the user-facing sentence for list_resources,
// substituting the caller's display name and course.
func formatResourceList(titles []string, p Persona) string {
	p = p.withDefaults()
	if len(titles) == 0 {
		return fmt.Sprintf("%s, por el momento no hay recursos disponibles para el curso %s.", p.UserName, p.Course)
	}
	return fmt.Sprintf("%s, estos son los recursos disponibles para el curso %s: %s.", p.UserName, p.Course, strings.Join(titles, ", "))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
