package usecase

import "github.com/MR34Z1r0/cdk-agents-resources/internal/domain"

// outcome is the classification of one model response. The loop terminates
// on outcomeAnswer, dispatches and possibly re-invokes on outcomeToolUse,
// re-invokes on outcomeContinue and aborts on outcomeUnrecognized.
type outcome int

const (
	outcomeAnswer outcome = iota
	outcomeToolUse
	outcomeContinue
	outcomeUnrecognized
)

// classify maps the model's stop reason to a loop outcome.
func classify(resp domain.ModelResponse) outcome {
	switch resp.StopReason {
	case domain.StopEndTurn, domain.StopStopSequence:
		return outcomeAnswer
	case domain.StopToolUse:
		return outcomeToolUse
	case domain.StopMaxTokens:
		return outcomeContinue
	default:
		return outcomeUnrecognized
	}
}
