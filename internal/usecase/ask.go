package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

const (
	statusAnswered     = "Respuesta generada correctamente"
	statusResourceList = "Listado de recursos generado correctamente"

	continueNudge       = "Por favor continúa."
	continueTemperature = 0.1

	turnTTL = 7 * 24 * time.Hour
)

// ModelClient invokes the language model once with the accumulated message
// list and the fixed tool configuration.
type ModelClient interface {
	Converse(ctx context.Context, req domain.ConverseRequest) (domain.ModelResponse, error)
}

// HistoryStore persists and retrieves conversation turns.
type HistoryStore interface {
	Recent(ctx context.Context, userID, syllabusID string, limit int) ([]domain.Turn, error)
	Append(ctx context.Context, turn domain.Turn) error
}

// AskService drives one chat exchange end to end: history assembly, the
// model/tool round-trip loop and persistence of the completed turn.
type AskService struct {
	model     ModelClient
	history   HistoryStore
	retriever *Retriever
	lister    *Lister
	settings  *settingsCache
	log       *slog.Logger
	now       func() time.Time
}

type AskInput struct {
	UserID          string
	SyllabusEventID string
	Message         string
	Persona         Persona
	// Resources is the caller's explicit resource-id allow-list. When set it
	// takes precedence over the syllabus-bound library lookup.
	Resources []string
}

type AskOutput struct {
	Answer string
	Status string
	Usage  domain.Usage
}

func NewAskService(model ModelClient, history HistoryStore, retriever *Retriever, lister *Lister, params ParamGetter, paramPrefix string, log *slog.Logger) (*AskService, error) {
	if model == nil {
		return nil, errors.New("usecase: model client must not be nil")
	}
	if history == nil {
		return nil, errors.New("usecase: history store must not be nil")
	}
	if retriever == nil {
		return nil, errors.New("usecase: retriever must not be nil")
	}
	if lister == nil {
		return nil, errors.New("usecase: lister must not be nil")
	}
	if params == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if strings.TrimSpace(paramPrefix) == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AskService{
		model:     model,
		history:   history,
		retriever: retriever,
		lister:    lister,
		settings:  newSettingsCache(params, paramPrefix),
		log:       log,
		now:       time.Now,
	}, nil
}

// Ask runs one logical exchange. Exactly one history record is appended per
// completed exchange, regardless of how many tool round trips occurred.
func (s *AskService) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.SyllabusEventID) == "" || strings.TrimSpace(in.Message) == "" {
		return AskOutput{}, newError(ErrorInvalidInput, "missing_fields", nil)
	}

	cfg, err := s.settings.get(ctx)
	if err != nil {
		return AskOutput{}, newError(ErrorInternal, "settings_load_error", err)
	}

	// History is best-effort: a lookup failure degrades to an empty history.
	turns, err := s.history.Recent(ctx, in.UserID, in.SyllabusEventID, cfg.HistoryElements)
	if err != nil {
		s.log.Error("history lookup failed, continuing without history", "user_id", in.UserID, "err", err)
		turns = nil
	}

	system := buildSystemPrompt(in.Persona)
	msgs := append(historyMessages(turns), domain.UserText(in.Message))

	out, err := s.runLoop(ctx, cfg, system, msgs, in)
	if err != nil {
		return AskOutput{}, err
	}

	if err := s.history.Append(ctx, domain.Turn{
		UserID:      in.UserID,
		SyllabusID:  in.SyllabusEventID,
		DateTime:    s.now().UTC().Format("2006-01-02 15:04:05"),
		UserMessage: in.Message,
		AIMessage:   out.Answer,
		Prompt:      system,
		TTL:         s.now().Add(turnTTL).Unix(),
	}); err != nil {
		s.log.Error("history append failed", "user_id", in.UserID, "err", err)
	}

	return out, nil
}

// runLoop is the conversation state machine. Each iteration invokes the
// model once and classifies the stop reason; retrieve_context is the one
// transition that appends a tool-result turn and loops back instead of
// terminating. The round cap bounds runaway tool loops.
func (s *AskService) runLoop(ctx context.Context, cfg Settings, system string, msgs []domain.Message, in AskInput) (AskOutput, error) {
	var usage domain.Usage
	temperature := cfg.Temperature

	for round := 0; round < cfg.MaxToolRounds; round++ {
		resp, err := s.model.Converse(ctx, domain.ConverseRequest{
			ModelID:     cfg.ModelID,
			System:      system,
			Messages:    msgs,
			Tools:       toolSpecs(),
			MaxTokens:   cfg.MaxTokens,
			Temperature: temperature,
			TopP:        defaultTopP,
		})
		if err != nil {
			return AskOutput{}, newError(ErrorUpstream, "model_error", err)
		}
		usage.Add(resp.Usage)

		switch classify(resp) {
		case outcomeAnswer:
			answer := stripReasoning(resp.FirstText(), cfg.ReasoningOpenTag, cfg.ReasoningCloseTag)
			return AskOutput{Answer: answer, Status: statusAnswered, Usage: usage}, nil

		case outcomeToolUse:
			call := resp.FirstToolUse()
			if call == nil {
				return AskOutput{}, newError(ErrorUpstream, "missing_tool_use_block", nil)
			}
			switch call.Name {
			case toolListResources:
				titles, err := s.lister.List(ctx, in.SyllabusEventID)
				if err != nil {
					s.log.Error("list_resources failed, reporting empty list", "syllabus_id", in.SyllabusEventID, "err", err)
					titles = nil
				}
				return AskOutput{Answer: formatResourceList(titles, in.Persona), Status: statusResourceList, Usage: usage}, nil

			case toolRetrieveContext:
				result, err := s.retrieveToolResult(ctx, cfg, call, in)
				if err != nil {
					return AskOutput{}, err
				}
				msgs = append(msgs,
					domain.Message{Role: domain.RoleAssistant, Content: resp.Content},
					domain.Message{Role: domain.RoleUser, Content: []domain.ContentBlock{{ToolResult: result}}},
				)

			default:
				return AskOutput{}, newError(ErrorUnknownTool, fmt.Sprintf("tool %q", call.Name), nil)
			}

		case outcomeContinue:
			msgs = append(msgs, domain.UserText(continueNudge))
			temperature = continueTemperature

		default:
			return AskOutput{}, newError(ErrorUnknownStop, string(resp.StopReason), nil)
		}
	}

	return AskOutput{}, newError(ErrorToolLoopExceeded, fmt.Sprintf("no terminal answer after %d rounds", cfg.MaxToolRounds), nil)
}

// retrieveToolResult executes retrieve_context and packages the chunk map as
// a tool-result block tagged with the originating correlation id. A search
// failure degrades to an empty mapping so the model can still answer.
func (s *AskService) retrieveToolResult(ctx context.Context, cfg Settings, call *domain.ToolCallRequest, in AskInput) (*domain.ToolResult, error) {
	var input struct {
		Query string `json:"query"`
	}
	if len(call.Input) > 0 {
		if err := json.Unmarshal(call.Input, &input); err != nil {
			s.log.Error("malformed retrieve_context input", "err", err)
		}
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		query = in.Message
	}

	chunks, err := s.retriever.Retrieve(ctx, query, in.SyllabusEventID, in.Resources, cfg.RetrieveTopK, cfg.RetrieveThreshold)
	if err != nil {
		s.log.Error("retrieve_context failed, returning empty context", "err", err)
		chunks = map[string]domain.RetrievedChunk{}
	}

	payload, err := json.Marshal(chunks)
	if err != nil {
		return nil, newError(ErrorInternal, "encode_tool_result", err)
	}
	return &domain.ToolResult{ID: call.ID, JSON: payload}, nil
}
