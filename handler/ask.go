package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/usecase"
)

// AskService is the chat use case the ask endpoint depends on.
type AskService interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
}

type askRequest struct {
	UserID          string `json:"user_id"`
	SyllabusEventID string `json:"syllabus_event_id"`
	Message         string `json:"message"`
	AssistantName   string `json:"asistente_nombre"`
	UserName        string `json:"usuario_nombre"`
	UserRole        string `json:"usuario_rol"`
	Institution     string `json:"institucion"`
	Course          string `json:"curso"`
	// Resources is an optional comma-separated resource-id allow-list.
	Resources string `json:"resources"`
}

type askData struct {
	Answer string   `json:"answer"`
	Usage  usageDTO `json:"usage"`
}

type usageDTO struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// AskHandler serves the chat endpoint.
type AskHandler struct {
	service AskService
}

func NewAskHandler(service AskService) (*AskHandler, error) {
	if service == nil {
		return nil, errors.New("handler: ask service must not be nil")
	}
	return &AskHandler{service: service}, nil
}

func (h *AskHandler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	var req askRequest
	if err := json.Unmarshal(requestBody(raw), &req); err != nil {
		return invalidBody(), nil
	}

	var missing []string
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if strings.TrimSpace(req.SyllabusEventID) == "" {
		missing = append(missing, "syllabus_event_id")
	}
	if strings.TrimSpace(req.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return missingFields(missing), nil
	}

	out, err := h.service.Ask(ctx, usecase.AskInput{
		UserID:          req.UserID,
		SyllabusEventID: req.SyllabusEventID,
		Message:         req.Message,
		Persona: usecase.Persona{
			AssistantName: req.AssistantName,
			UserName:      req.UserName,
			UserRole:      req.UserRole,
			Institution:   req.Institution,
			Course:        req.Course,
		},
		Resources: splitResourceIDs(req.Resources),
	})
	if err != nil {
		return errorResponse(err), nil
	}

	return successResponse(out.Status, askData{
		Answer: out.Answer,
		Usage: usageDTO{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
		},
	}), nil
}

// splitResourceIDs parses the comma-separated allow-list, dropping empty
// entries.
func splitResourceIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
