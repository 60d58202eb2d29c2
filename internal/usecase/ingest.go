package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// DocumentFetcher downloads a document's raw bytes from its external home.
type DocumentFetcher interface {
	Fetch(ctx context.Context, driveID string) ([]byte, error)
}

// ObjectStore keeps the original document bytes alongside the index.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
}

// Embedder turns a text fragment into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorIndex writes to and removes from the similarity index.
type VectorIndex interface {
	Upsert(ctx context.Context, vectors []domain.Vector) error
	DeleteVectors(ctx context.Context, ids []string) error
}

// ResourceAdmin extends ResourceStore with the catalog writes the ingestion
// and removal flows perform.
type ResourceAdmin interface {
	ResourceStore
	PutResource(ctx context.Context, res domain.Resource) error
	DeleteResource(ctx context.Context, resourceID string) error
}

// HashStore maps a document content hash to the stored object key, used to
// reject re-ingestion of identical content under a new id.
type HashStore interface {
	GetHash(ctx context.Context, fileHash string) (string, bool, error)
	PutHash(ctx context.Context, fileHash, s3Path string) error
	DeleteHash(ctx context.Context, fileHash string) error
}

// LibraryAdmin extends LibraryStore with syllabus binding writes.
type LibraryAdmin interface {
	LibraryStore
	AddResource(ctx context.Context, syllabusID, resourceID string) error
	RemoveResource(ctx context.Context, syllabusID, resourceID string) error
}

// IngestService indexes a new course document: download, dedupe by content
// hash, archive the original, chunk, embed, upsert vectors and record the
// catalog entries.
type IngestService struct {
	fetcher   DocumentFetcher
	objects   ObjectStore
	embedder  Embedder
	index     VectorIndex
	resources ResourceAdmin
	hashes    HashStore
	library   LibraryAdmin
	log       *slog.Logger
	newID     func() string
}

type IngestInput struct {
	ResourceID      string
	Title           string
	DriveID         string
	SyllabusEventID string
}

type IngestOutput struct {
	Resource domain.Resource
	Chunks   int
}

func NewIngestService(fetcher DocumentFetcher, objects ObjectStore, embedder Embedder, index VectorIndex, resources ResourceAdmin, hashes HashStore, library LibraryAdmin, log *slog.Logger) (*IngestService, error) {
	if fetcher == nil {
		return nil, errors.New("usecase: document fetcher must not be nil")
	}
	if objects == nil {
		return nil, errors.New("usecase: object store must not be nil")
	}
	if embedder == nil {
		return nil, errors.New("usecase: embedder must not be nil")
	}
	if index == nil {
		return nil, errors.New("usecase: vector index must not be nil")
	}
	if resources == nil {
		return nil, errors.New("usecase: resource store must not be nil")
	}
	if hashes == nil {
		return nil, errors.New("usecase: hash store must not be nil")
	}
	if library == nil {
		return nil, errors.New("usecase: library store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &IngestService{
		fetcher:   fetcher,
		objects:   objects,
		embedder:  embedder,
		index:     index,
		resources: resources,
		hashes:    hashes,
		library:   library,
		log:       log,
		newID:     uuid.NewString,
	}, nil
}

// Ingest runs the full pipeline. Identical content already indexed under any
// id is rejected before any write happens.
func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (IngestOutput, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.DriveID) == "" || strings.TrimSpace(in.SyllabusEventID) == "" {
		return IngestOutput{}, newError(ErrorInvalidInput, "missing_fields", nil)
	}
	resourceID := strings.TrimSpace(in.ResourceID)
	if resourceID == "" {
		resourceID = s.newID()
	}

	body, err := s.fetcher.Fetch(ctx, in.DriveID)
	if err != nil {
		return IngestOutput{}, newError(ErrorUpstream, fmt.Sprintf("download document %q", in.DriveID), err)
	}

	sum := sha256.Sum256(body)
	fileHash := hex.EncodeToString(sum[:])
	if existing, found, err := s.hashes.GetHash(ctx, fileHash); err != nil {
		return IngestOutput{}, newError(ErrorUpstream, "hash lookup", err)
	} else if found {
		return IngestOutput{}, newError(ErrorDuplicate, fmt.Sprintf("content already indexed at %q", existing), nil)
	}

	s3Path := fmt.Sprintf("resources/%s/%s", in.SyllabusEventID, resourceID)
	if err := s.objects.Put(ctx, s3Path, body); err != nil {
		return IngestOutput{}, newError(ErrorUpstream, fmt.Sprintf("archive document %q", s3Path), err)
	}

	chunks := chunkText(string(body), chunkWords, chunkOverlap)
	if len(chunks) == 0 {
		return IngestOutput{}, newError(ErrorInvalidInput, "document has no indexable text", nil)
	}

	vectors := make([]domain.Vector, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		values, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			return IngestOutput{}, newError(ErrorUpstream, fmt.Sprintf("embed chunk %d of %d", i+1, len(chunks)), err)
		}
		id := fmt.Sprintf("%s_chunk_%d", resourceID, i+1)
		ids = append(ids, id)
		vectors = append(vectors, domain.Vector{
			ID:     id,
			Values: values,
			Metadata: map[string]string{
				"resource_id":    resourceID,
				"resource_title": in.Title,
				"text":           chunk,
			},
		})
	}
	if err := s.index.Upsert(ctx, vectors); err != nil {
		return IngestOutput{}, newError(ErrorUpstream, "index vectors", err)
	}

	res := domain.Resource{
		ID:          resourceID,
		Title:       in.Title,
		DriveID:     in.DriveID,
		FileHash:    fileHash,
		S3Path:      s3Path,
		PineconeIDs: ids,
	}
	if err := s.resources.PutResource(ctx, res); err != nil {
		return IngestOutput{}, newError(ErrorUpstream, fmt.Sprintf("record resource %q", resourceID), err)
	}
	if err := s.hashes.PutHash(ctx, fileHash, s3Path); err != nil {
		return IngestOutput{}, newError(ErrorUpstream, "record content hash", err)
	}
	if err := s.library.AddResource(ctx, in.SyllabusEventID, resourceID); err != nil {
		return IngestOutput{}, newError(ErrorUpstream, fmt.Sprintf("bind resource %q to syllabus %q", resourceID, in.SyllabusEventID), err)
	}

	s.log.Info("resource ingested", "resource_id", resourceID, "syllabus_id", in.SyllabusEventID, "chunks", len(chunks))
	return IngestOutput{Resource: res, Chunks: len(chunks)}, nil
}
