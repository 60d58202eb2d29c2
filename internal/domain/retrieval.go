package domain

// Vector is one embedding ready for indexing, tagged with the metadata the
// search filter and chunk packaging rely on.
type Vector struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchMatch is a raw similarity hit from the vector index.
type SearchMatch struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}

// RetrievedChunk is a fragment of indexed document text handed to the model
// as tool output. Ephemeral: produced per retrieval call, never persisted.
type RetrievedChunk struct {
	Text       string  `json:"text"`
	ResourceID string  `json:"resource_id"`
	Score      float64 `json:"score"`
}
