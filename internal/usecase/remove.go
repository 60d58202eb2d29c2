package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// RemoveService unindexes a resource: vectors, archived object, catalog rows
// and the syllabus binding. Catalog rows are authoritative; failures against
// the index or object store are logged and absorbed so a half-removed
// resource can be removed again.
type RemoveService struct {
	index     VectorIndex
	objects   ObjectStore
	resources ResourceAdmin
	hashes    HashStore
	library   LibraryAdmin
	log       *slog.Logger
}

func NewRemoveService(index VectorIndex, objects ObjectStore, resources ResourceAdmin, hashes HashStore, library LibraryAdmin, log *slog.Logger) (*RemoveService, error) {
	if index == nil {
		return nil, errors.New("usecase: vector index must not be nil")
	}
	if objects == nil {
		return nil, errors.New("usecase: object store must not be nil")
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
	return &RemoveService{
		index:     index,
		objects:   objects,
		resources: resources,
		hashes:    hashes,
		library:   library,
		log:       log,
	}, nil
}

// Remove deletes every trace of the resource. An unknown id is a not-found
// error; anything else proceeds best effort against the external stores and
// strictly against the catalog.
func (s *RemoveService) Remove(ctx context.Context, resourceID, syllabusEventID string) (domain.Resource, error) {
	if strings.TrimSpace(resourceID) == "" {
		return domain.Resource{}, newError(ErrorInvalidInput, "missing_fields", nil)
	}

	res, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Resource{}, newError(ErrorNotFound, fmt.Sprintf("resource %q", resourceID), err)
		}
		return domain.Resource{}, newError(ErrorUpstream, fmt.Sprintf("lookup resource %q", resourceID), err)
	}

	if len(res.PineconeIDs) > 0 {
		if err := s.index.DeleteVectors(ctx, res.PineconeIDs); err != nil {
			s.log.Error("vector delete failed, continuing", "resource_id", resourceID, "err", err)
		}
	}
	if res.S3Path != "" {
		if err := s.objects.Delete(ctx, res.S3Path); err != nil {
			s.log.Error("object delete failed, continuing", "resource_id", resourceID, "s3_path", res.S3Path, "err", err)
		}
	}

	if res.FileHash != "" {
		if err := s.hashes.DeleteHash(ctx, res.FileHash); err != nil {
			return domain.Resource{}, newError(ErrorUpstream, "delete content hash", err)
		}
	}
	if err := s.resources.DeleteResource(ctx, resourceID); err != nil {
		return domain.Resource{}, newError(ErrorUpstream, fmt.Sprintf("delete resource %q", resourceID), err)
	}
	if strings.TrimSpace(syllabusEventID) != "" {
		if err := s.library.RemoveResource(ctx, syllabusEventID, resourceID); err != nil {
			return domain.Resource{}, newError(ErrorUpstream, fmt.Sprintf("unbind resource %q from syllabus %q", resourceID, syllabusEventID), err)
		}
	}

	s.log.Info("resource removed", "resource_id", resourceID, "syllabus_id", syllabusEventID)
	return res, nil
}
