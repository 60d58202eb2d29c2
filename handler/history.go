package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// HistoryService is the history use case the read and delete endpoints
// depend on.
type HistoryService interface {
	Get(ctx context.Context, userID, syllabusID string, limit int) ([]domain.Turn, error)
	Delete(ctx context.Context, userID, syllabusID string) (int, error)
}

type historyRequest struct {
	UserID          string `json:"user_id"`
	SyllabusEventID string `json:"syllabus_event_id"`
	Limit           int    `json:"limit"`
}

type historyEntry struct {
	UserMessage string `json:"user_message"`
	AIMessage   string `json:"ai_message"`
	DateTime    string `json:"date_time"`
}

// GetHistoryHandler serves the history read endpoint.
type GetHistoryHandler struct {
	service HistoryService
}

func NewGetHistoryHandler(service HistoryService) (*GetHistoryHandler, error) {
	if service == nil {
		return nil, errors.New("handler: history service must not be nil")
	}
	return &GetHistoryHandler{service: service}, nil
}

func (h *GetHistoryHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	req, resp, ok := parseHistoryRequest(raw)
	if !ok {
		return resp, nil
	}

	turns, err := h.service.Get(ctx, req.UserID, req.SyllabusEventID, req.Limit)
	if err != nil {
		return errorResponse(err), nil
	}

	entries := make([]historyEntry, 0, len(turns))
	for _, t := range turns {
		entries = append(entries, historyEntry{
			UserMessage: t.UserMessage,
			AIMessage:   t.AIMessage,
			DateTime:    t.DateTime,
		})
	}
	return successResponse("", map[string]any{"history": entries}), nil
}

// DeleteHistoryHandler serves the history delete endpoint.
type DeleteHistoryHandler struct {
	service HistoryService
}

func NewDeleteHistoryHandler(service HistoryService) (*DeleteHistoryHandler, error) {
	if service == nil {
		return nil, errors.New("handler: history service must not be nil")
	}
	return &DeleteHistoryHandler{service: service}, nil
}

func (h *DeleteHistoryHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	req, resp, ok := parseHistoryRequest(raw)
	if !ok {
		return resp, nil
	}

	deleted, err := h.service.Delete(ctx, req.UserID, req.SyllabusEventID)
	if err != nil {
		return errorResponse(err), nil
	}
	return successResponse("Historial eliminado correctamente", map[string]any{"deleted_count": deleted}), nil
}

func parseHistoryRequest(raw json.RawMessage) (historyRequest, Response, bool) {
	var req historyRequest
	if err := json.Unmarshal(requestBody(raw), &req); err != nil {
		return req, invalidBody(), false
	}

	var missing []string
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if strings.TrimSpace(req.SyllabusEventID) == "" {
		missing = append(missing, "syllabus_event_id")
	}
	if len(missing) > 0 {
		return req, missingFields(missing), false
	}
	return req, Response{}, true
}
