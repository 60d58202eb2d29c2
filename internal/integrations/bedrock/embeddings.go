package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type embeddingRequest struct {
	InputText string `json:"inputText"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embedder produces embeddings through a Titan text-embeddings model.
type Embedder struct {
	api     bedrockAPI
	modelID string
}

func NewEmbedder(api bedrockAPI, modelID string) (*Embedder, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	if modelID == "" {
		return nil, errors.New("bedrock: embeddings model id must not be empty")
	}
	return &Embedder{api: api, modelID: modelID}, nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{InputText: text})
	if err != nil {
		return nil, fmt.Errorf("bedrock: marshal embedding request: %w", err)
	}

	out, err := e.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: invoke embeddings model %q: %w", e.modelID, err)
	}

	var payload embeddingResponse
	if err := json.Unmarshal(out.Body, &payload); err != nil {
		return nil, fmt.Errorf("bedrock: decode embedding response: %w", err)
	}
	if len(payload.Embedding) == 0 {
		return nil, errors.New("bedrock: embedding response is empty")
	}
	return payload.Embedding, nil
}
