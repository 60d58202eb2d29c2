package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/usecase"
)

// Response is the proxy-integration shape returned to API Gateway.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type errorDetail struct {
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

type errorBody struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func jsonHeaders() map[string]string {
	return map[string]string{"content-type": "application/json"}
}

func respond(status int, payload any) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{
			StatusCode: http.StatusInternalServerError,
			Headers:    jsonHeaders(),
			Body:       `{"success":false,"error":{"code":"INTERNAL_ERROR"}}`,
		}
	}
	return Response{StatusCode: status, Headers: jsonHeaders(), Body: string(body)}
}

func successResponse(message string, data any) Response {
	return respond(http.StatusOK, successBody{Success: true, Message: message, Data: data})
}

func invalidBody() Response {
	return respond(http.StatusBadRequest, errorBody{Error: errorDetail{Code: "INVALID_BODY"}})
}

// missingFields is the 400 shape for absent required request fields, listing
// every missing field name in one response.
func missingFields(fields []string) Response {
	return respond(http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    "MISSING_FIELDS",
		Details: fields,
	}})
}

// errorResponse maps a service error to its HTTP shape. Unclassified errors
// collapse to a generic 500 so internals never leak to the caller.
func errorResponse(err error) Response {
	code := usecase.ErrorInternal
	var uerr *usecase.Error
	if errors.As(err, &uerr) {
		code = uerr.Code
	}

	status := http.StatusInternalServerError
	switch code {
	case usecase.ErrorInvalidInput:
		status = http.StatusBadRequest
	case usecase.ErrorNotFound:
		status = http.StatusNotFound
	case usecase.ErrorDuplicate:
		status = http.StatusConflict
	case usecase.ErrorUpstream:
		status = http.StatusBadGateway
	}
	return respond(status, errorBody{Error: errorDetail{Code: string(code)}})
}

// requestBody unwraps an API Gateway proxy event, returning the inner body
// when present and the raw payload when the function is invoked directly.
func requestBody(raw json.RawMessage) []byte {
	var envelope struct {
		Body string `json:"body"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Body != "" {
		return []byte(envelope.Body)
	}
	return raw
}
