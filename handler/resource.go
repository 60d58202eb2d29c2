package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/usecase"
)

// IngestService is the indexing use case the add endpoint depends on.
type IngestService interface {
	Ingest(ctx context.Context, in usecase.IngestInput) (usecase.IngestOutput, error)
}

// RemoveService is the unindexing use case the delete endpoint depends on.
type RemoveService interface {
	Remove(ctx context.Context, resourceID, syllabusEventID string) (domain.Resource, error)
}

type addResourceRequest struct {
	ResourceID      string `json:"resource_id"`
	ResourceTitle   string `json:"resource_title"`
	DriveID         string `json:"drive_id"`
	SyllabusEventID string `json:"syllabus_event_id"`
}

type deleteResourceRequest struct {
	ResourceID      string `json:"resource_id"`
	SyllabusEventID string `json:"syllabus_event_id"`
}

// AddResourceHandler serves the resource ingestion endpoint.
type AddResourceHandler struct {
	service IngestService
}

func NewAddResourceHandler(service IngestService) (*AddResourceHandler, error) {
	if service == nil {
		return nil, errors.New("handler: ingest service must not be nil")
	}
	return &AddResourceHandler{service: service}, nil
}

func (h *AddResourceHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	var req addResourceRequest
	if err := json.Unmarshal(requestBody(raw), &req); err != nil {
		return invalidBody(), nil
	}

	var missing []string
	if strings.TrimSpace(req.ResourceTitle) == "" {
		missing = append(missing, "resource_title")
	}
	if strings.TrimSpace(req.DriveID) == "" {
		missing = append(missing, "drive_id")
	}
	if strings.TrimSpace(req.SyllabusEventID) == "" {
		missing = append(missing, "syllabus_event_id")
	}
	if len(missing) > 0 {
		return missingFields(missing), nil
	}

	out, err := h.service.Ingest(ctx, usecase.IngestInput{
		ResourceID:      req.ResourceID,
		Title:           req.ResourceTitle,
		DriveID:         req.DriveID,
		SyllabusEventID: req.SyllabusEventID,
	})
	if err != nil {
		return errorResponse(err), nil
	}

	return successResponse("Recurso indexado correctamente", map[string]any{
		"resource_id": out.Resource.ID,
		"chunks":      out.Chunks,
	}), nil
}

// DeleteResourceHandler serves the resource removal endpoint.
type DeleteResourceHandler struct {
	service RemoveService
}

func NewDeleteResourceHandler(service RemoveService) (*DeleteResourceHandler, error) {
	if service == nil {
		return nil, errors.New("handler: remove service must not be nil")
	}
	return &DeleteResourceHandler{service: service}, nil
}

func (h *DeleteResourceHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	var req deleteResourceRequest
	if err := json.Unmarshal(requestBody(raw), &req); err != nil {
		return invalidBody(), nil
	}
	var missing []string
	if strings.TrimSpace(req.ResourceID) == "" {
		missing = append(missing, "resource_id")
	}
	if strings.TrimSpace(req.SyllabusEventID) == "" {
		missing = append(missing, "syllabus_event_id")
	}
	if len(missing) > 0 {
		return missingFields(missing), nil
	}

	res, err := h.service.Remove(ctx, req.ResourceID, req.SyllabusEventID)
	if err != nil {
		return errorResponse(err), nil
	}
	return successResponse("Recurso eliminado correctamente", map[string]any{
		"resource_id": res.ID,
	}), nil
}
