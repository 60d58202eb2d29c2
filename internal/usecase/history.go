package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// HistoryAdmin extends HistoryStore with the operations the history endpoints
// need: a bounded newest-first page and a soft-delete sweep.
type HistoryAdmin interface {
	HistoryStore
	MarkDeleted(ctx context.Context, userID, syllabusID string) (int, error)
}

// HistoryService serves the conversation history read and delete endpoints.
type HistoryService struct {
	store HistoryAdmin
	log   *slog.Logger
}

func NewHistoryService(store HistoryAdmin, log *slog.Logger) (*HistoryService, error) {
	if store == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &HistoryService{store: store, log: log}, nil
}

// Get returns up to limit turns for the user within the syllabus, newest
// first. Soft-deleted turns are never returned.
func (s *HistoryService) Get(ctx context.Context, userID, syllabusID string, limit int) ([]domain.Turn, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(syllabusID) == "" {
		return nil, newError(ErrorInvalidInput, "missing_fields", nil)
	}
	if limit <= 0 {
		limit = defaultHistoryElements
	}
	turns, err := s.store.Recent(ctx, userID, syllabusID, limit)
	if err != nil {
		return nil, newError(ErrorUpstream, fmt.Sprintf("history query for user %q", userID), err)
	}
	return turns, nil
}

// Delete soft-deletes every visible turn of the user within the syllabus and
// reports how many turns were flagged. Deleting an empty history is not an
// error.
func (s *HistoryService) Delete(ctx context.Context, userID, syllabusID string) (int, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(syllabusID) == "" {
		return 0, newError(ErrorInvalidInput, "missing_fields", nil)
	}
	n, err := s.store.MarkDeleted(ctx, userID, syllabusID)
	if err != nil {
		return 0, newError(ErrorUpstream, fmt.Sprintf("history delete for user %q", userID), err)
	}
	s.log.Info("history deleted", "user_id", userID, "syllabus_id", syllabusID, "turns", n)
	return n, nil
}
