package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

const (
	defaultMaxTokens       = 1024
	defaultHistoryElements = 6
	defaultMaxToolRounds   = 8
	defaultTopP            = 0.2

	defaultRetrieveThreshold = 0.5
)

// ParamGetter fetches a parameter value from the parameter store.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Settings is the chatbot configuration stored as a single JSON parameter
// under <prefix>/chatbot.
type Settings struct {
	ModelID           string  `json:"model_id"`
	MaxTokens         int     `json:"max_tokens"`
	Temperature       float32 `json:"temperature"`
	HistoryElements   int     `json:"history_elements"`
	MaxToolRounds     int     `json:"max_tool_rounds"`
	ReasoningOpenTag  string  `json:"reasoning_open_tag"`
	ReasoningCloseTag string  `json:"reasoning_close_tag"`
	RetrieveTopK      int     `json:"retrieve_top_k"`
	RetrieveThreshold float64 `json:"retrieve_threshold"`
}

func (s *Settings) applyDefaults() {
	if s.MaxTokens <= 0 {
		s.MaxTokens = defaultMaxTokens
	}
	if s.Temperature <= 0 {
		s.Temperature = 1
	}
	if s.HistoryElements <= 0 {
		s.HistoryElements = defaultHistoryElements
	}
	if s.MaxToolRounds <= 0 {
		s.MaxToolRounds = defaultMaxToolRounds
	}
	if s.ReasoningOpenTag == "" && s.ReasoningCloseTag == "" {
		s.ReasoningOpenTag = "<thinking>"
		s.ReasoningCloseTag = "</thinking>"
	}
	if s.RetrieveTopK <= 0 {
		s.RetrieveTopK = 6
	}
	if s.RetrieveThreshold == 0 {
		s.RetrieveThreshold = defaultRetrieveThreshold
	}
}

// settingsCache loads the chatbot settings parameter on first use and keeps
// the decoded value for the remainder of the process. A failed load is
// retried on the next request.
type settingsCache struct {
	params ParamGetter
	name   string

	mu       sync.RWMutex
	loaded   bool
	settings Settings
}

func newSettingsCache(params ParamGetter, prefix string) *settingsCache {
	return &settingsCache{
		params: params,
		name:   strings.TrimRight(strings.TrimSpace(prefix), "/") + "/chatbot",
	}
}

func (c *settingsCache) get(ctx context.Context) (Settings, error) {
	c.mu.RLock()
	if c.loaded {
		s := c.settings
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.settings, nil
	}

	raw, err := c.params.GetParameter(ctx, c.name)
	if err != nil {
		return Settings{}, fmt.Errorf("usecase: load settings %q: %w", c.name, err)
	}
	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Settings{}, fmt.Errorf("usecase: decode settings %q: %w", c.name, err)
	}
	if s.ModelID == "" {
		return Settings{}, fmt.Errorf("usecase: settings %q missing model_id", c.name)
	}
	s.applyDefaults()

	c.settings = s
	c.loaded = true
	return s, nil
}
