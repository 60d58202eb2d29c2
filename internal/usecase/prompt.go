package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// Persona carries the caller-supplied presentation fields used to build the
// system prompt. Field wording stays in Spanish to match the product surface.
type Persona struct {
	AssistantName string
	UserName      string
	UserRole      string
	Institution   string
	Course        string
}

func (p Persona) withDefaults() Persona {
	if p.AssistantName == "" {
		p.AssistantName = "Asistente"
	}
	if p.UserName == "" {
		p.UserName = "Estudiante"
	}
	if p.UserRole == "" {
		p.UserRole = "Estudiante"
	}
	if p.Institution == "" {
		p.Institution = "Universidad"
	}
	if p.Course == "" {
		p.Course = "Curso"
	}
	return p
}

// buildSystemPrompt renders the per-request system prompt. It is built once
// per incoming request and reused unchanged across every model round trip of
// the same exchange.
func buildSystemPrompt(p Persona) string {
	p = p.withDefaults()
	return strings.Join([]string{
		fmt.Sprintf("Eres un chatbot educativo llamado %s de la institución %s.", p.AssistantName, p.Institution),
		fmt.Sprintf("Conversas con %s, cuyo rol es %s, en el curso %s.", p.UserName, p.UserRole, p.Course),
		"",
		"Instrucciones:",
		"- Responde de manera natural, con tono formal y amigable, adaptando tus respuestas al rol del usuario.",
		"- Si necesitas información de los materiales del curso, usa la herramienta retrieve_context con una consulta concreta.",
		"- Si el usuario pregunta qué materiales existen, usa la herramienta list_resources.",
		"- Si el contexto recuperado es relevante, utilízalo para responder; si no hay contexto, responde con tu propio conocimiento.",
		"- Si existe historial de conversación responde directamente sin saludar; en caso contrario saluda primero.",
	}, "\n")
}

// historyMessages expands persisted turns, given newest first, into the
// structured message list the model expects: oldest first, each turn
// contributing a user and an assistant message, empty sides skipped.
func historyMessages(turns []domain.Turn) []domain.Message {
	msgs := make([]domain.Message, 0, 2*len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if q := strings.TrimSpace(t.UserMessage); q != "" {
			msgs = append(msgs, domain.UserText(q))
		}
		if a := strings.TrimSpace(t.AIMessage); a != "" {
			msgs = append(msgs, domain.AssistantText(a))
		}
	}
	return msgs
}

// stripReasoning removes one delimited internal-reasoning span from the
// answer text. The markers are configurable; when either is empty or the
// pair is absent the text is returned verbatim.
func stripReasoning(text, open, close string) string {
	if open == "" || close == "" {
		return strings.TrimSpace(text)
	}
	re, err := regexp.Compile(`(?s)` + regexp.QuoteMeta(open) + `.*?` + regexp.QuoteMeta(close))
	if err != nil {
		return strings.TrimSpace(text)
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
}
