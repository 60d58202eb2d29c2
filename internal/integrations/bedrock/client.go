package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

// bedrockAPI is the minimal Bedrock runtime interface required by Client.
// *bedrockruntime.Client from aws-sdk-go-v2 satisfies this interface.
type bedrockAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client adapts the Bedrock Converse API to the provider-agnostic chat
// shapes. Stop reasons pass through as-is so the caller's classifier sees
// exactly what the model reported.
type Client struct {
	api bedrockAPI
}

func New(api bedrockAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) Converse(ctx context.Context, req domain.ConverseRequest) (domain.ModelResponse, error) {
	if req.ModelID == "" {
		return domain.ModelResponse{}, errors.New("bedrock: model id must not be empty")
	}

	messages, err := toMessages(req.Messages)
	if err != nil {
		return domain.ModelResponse{}, err
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(req.ModelID),
		Messages: messages,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(req.MaxTokens)),
			Temperature: aws.Float32(req.Temperature),
			TopP:        aws.Float32(req.TopP),
		},
	}
	if req.System != "" {
		in.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}
	if len(req.Tools) > 0 {
		in.ToolConfig = toToolConfig(req.Tools)
	}

	out, err := c.api.Converse(ctx, in)
	if err != nil {
		return domain.ModelResponse{}, fmt.Errorf("bedrock: converse %q: %w", req.ModelID, err)
	}

	resp := domain.ModelResponse{StopReason: domain.StopReason(out.StopReason)}
	if out.Usage != nil {
		resp.Usage = domain.Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
		}
	}
	if msg, ok := out.Output.(*types.ConverseOutputMemberMessage); ok {
		resp.Content, err = fromContent(msg.Value.Content)
		if err != nil {
			return domain.ModelResponse{}, err
		}
	}
	return resp, nil
}

func toMessages(msgs []domain.Message) ([]types.Message, error) {
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		role := types.ConversationRoleUser
		if m.Role == domain.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		content, err := toContent(m.Content)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Message{Role: role, Content: content})
	}
	return out, nil
}

func toContent(blocks []domain.ContentBlock) ([]types.ContentBlock, error) {
	out := make([]types.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch {
		case b.ToolUse != nil:
			input, err := rawToDocument(b.ToolUse.Input)
			if err != nil {
				return nil, fmt.Errorf("bedrock: encode tool-use input for %q: %w", b.ToolUse.Name, err)
			}
			out = append(out, &types.ContentBlockMemberToolUse{
				Value: types.ToolUseBlock{
					ToolUseId: aws.String(b.ToolUse.ID),
					Name:      aws.String(b.ToolUse.Name),
					Input:     input,
				},
			})
		case b.ToolResult != nil:
			result, err := rawToDocument(b.ToolResult.JSON)
			if err != nil {
				return nil, fmt.Errorf("bedrock: encode tool result %q: %w", b.ToolResult.ID, err)
			}
			out = append(out, &types.ContentBlockMemberToolResult{
				Value: types.ToolResultBlock{
					ToolUseId: aws.String(b.ToolResult.ID),
					Content: []types.ToolResultContentBlock{
						&types.ToolResultContentBlockMemberJson{Value: result},
					},
				},
			})
		default:
			out = append(out, &types.ContentBlockMemberText{Value: b.Text})
		}
	}
	return out, nil
}

func fromContent(blocks []types.ContentBlock) ([]domain.ContentBlock, error) {
	out := make([]domain.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case *types.ContentBlockMemberText:
			out = append(out, domain.ContentBlock{Text: v.Value})
		case *types.ContentBlockMemberToolUse:
			input, err := documentToRaw(v.Value.Input)
			if err != nil {
				return nil, fmt.Errorf("bedrock: decode tool-use input: %w", err)
			}
			out = append(out, domain.ContentBlock{ToolUse: &domain.ToolCallRequest{
				Name:  aws.ToString(v.Value.Name),
				ID:    aws.ToString(v.Value.ToolUseId),
				Input: input,
			}})
		}
	}
	return out, nil
}

func toToolConfig(specs []domain.ToolSpec) *types.ToolConfiguration {
	tools := make([]types.Tool, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(s.Name),
				Description: aws.String(s.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(s.InputSchema),
				},
			},
		})
	}
	return &types.ToolConfiguration{Tools: tools}
}

func rawToDocument(raw json.RawMessage) (document.Interface, error) {
	var v any
	if len(raw) == 0 {
		v = map[string]any{}
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return document.NewLazyDocument(v), nil
}

func documentToRaw(doc document.Interface) (json.RawMessage, error) {
	if doc == nil {
		return nil, nil
	}
	buf, err := doc.MarshalSmithyDocument()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(buf), nil
}
