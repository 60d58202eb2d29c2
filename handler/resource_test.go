package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
	"github.com/MR34Z1r0/cdk-agents-resources/internal/usecase"
)

type fakeIngestService struct {
	out usecase.IngestOutput
	err error

	lastInput usecase.IngestInput
}

func (f *fakeIngestService) Ingest(_ context.Context, in usecase.IngestInput) (usecase.IngestOutput, error) {
	f.lastInput = in
	return f.out, f.err
}

type fakeRemoveService struct {
	res domain.Resource
	err error

	lastResourceID string
	lastSyllabusID string
}

func (f *fakeRemoveService) Remove(_ context.Context, resourceID, syllabusEventID string) (domain.Resource, error) {
	f.lastResourceID = resourceID
	f.lastSyllabusID = syllabusEventID
	return f.res, f.err
}

func addResourceBody() string {
	return `{
		"resource_id": "res-1",
		"resource_title": "Guía de laboratorio",
		"drive_id": "drive-abc",
		"syllabus_event_id": "silabo-1"
	}`
}

func TestAddResourceHandler_HappyPath(t *testing.T) {
	svc := &fakeIngestService{out: usecase.IngestOutput{
		Resource: domain.Resource{ID: "res-1"},
		Chunks:   3,
	}}
	h, err := NewAddResourceHandler(svc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), json.RawMessage(addResourceBody()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	require.Equal(t, "res-1", data["resource_id"])
	require.Equal(t, float64(3), data["chunks"])

	require.Equal(t, "Guía de laboratorio", svc.lastInput.Title)
	require.Equal(t, "drive-abc", svc.lastInput.DriveID)
}

func TestAddResourceHandler_MissingFields(t *testing.T) {
	h, err := NewAddResourceHandler(&fakeIngestService{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"resource_title":"Guía"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	require.ElementsMatch(t, []any{"drive_id", "syllabus_event_id"}, body["error"].(map[string]any)["details"])
}

func TestAddResourceHandler_DuplicateConflict(t *testing.T) {
	svc := &fakeIngestService{err: &usecase.Error{Code: usecase.ErrorDuplicate, Reason: "already indexed"}}
	h, err := NewAddResourceHandler(svc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), json.RawMessage(addResourceBody()))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "DUPLICATE_RESOURCE", body["error"].(map[string]any)["code"])
}

func TestDeleteResourceHandler_HappyPath(t *testing.T) {
	svc := &fakeRemoveService{res: domain.Resource{ID: "res-1"}}
	h, err := NewDeleteResourceHandler(svc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"resource_id":"res-1","syllabus_event_id":"silabo-1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "res-1", svc.lastResourceID)
	require.Equal(t, "silabo-1", svc.lastSyllabusID)
}

func TestDeleteResourceHandler_MissingID(t *testing.T) {
	h, err := NewDeleteResourceHandler(&fakeRemoveService{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"syllabus_event_id":"silabo-1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	require.ElementsMatch(t, []any{"resource_id"}, body["error"].(map[string]any)["details"])
}

func TestDeleteResourceHandler_MissingSyllabus(t *testing.T) {
	h, err := NewDeleteResourceHandler(&fakeRemoveService{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"resource_id":"res-1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	require.ElementsMatch(t, []any{"syllabus_event_id"}, body["error"].(map[string]any)["details"])
}

func TestDeleteResourceHandler_NotFound(t *testing.T) {
	svc := &fakeRemoveService{err: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "resource"}}
	h, err := NewDeleteResourceHandler(svc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"resource_id":"fantasma","syllabus_event_id":"silabo-1"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}
