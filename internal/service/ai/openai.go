package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIOptions configures the OpenAI-backed client.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type responsesService interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

type chatCompletionsService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

type openAIClient struct {
	responses   responsesService
	completions chatCompletionsService
	model       string
}

// NewOpenAI builds a Client over the Responses and Chat Completions APIs.
// Retries are disabled; the reply engine owns the fallback chain.
func NewOpenAI(opts OpenAIOptions) (Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	client := openai.NewClient(reqOpts...)

	modelName := strings.TrimSpace(opts.Model)
	if modelName == "" {
		modelName = DefaultOpenAIModel
	}

	return &openAIClient{
		responses:   &client.Responses,
		completions: &client.Chat.Completions,
		model:       modelName,
	}, nil
}

func (c *openAIClient) Model() string {
	return c.model
}

// Respond calls the Responses API and flattens its text output.
func (c *openAIClient) Respond(ctx context.Context, req Request) (string, error) {
	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(c.model),
		Input:           responses.ResponseNewParamsInputUnion{OfInputItemList: buildResponsesInput(req.Messages)},
		Temperature:     openai.Float(req.Temperature),
		MaxOutputTokens: openai.Int(int64(req.MaxOutputTokens)),
	}
	if instruction := strings.TrimSpace(req.Instruction); instruction != "" {
		params.Instructions = openai.String(instruction)
	}

	resp, err := c.responses.New(ctx, params)
	if err != nil {
		return "", err
	}

	text := extractResponsesText(resp)
	if text == "" {
		return "", fmt.Errorf("responses API %w", ErrEmptyText)
	}
	return text, nil
}

// CompleteChat calls the Chat Completions API and returns the first choice.
func (c *openAIClient) CompleteChat(ctx context.Context, req Request) (string, error) {
	// Legacy max_tokens; some OpenAI-compatible servers reject max_completion_tokens.
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    buildChatMessages(req.Instruction, req.Messages),
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxOutputTokens)),
	}

	completion, err := c.completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completions %w", ErrEmptyText)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completions %w", ErrEmptyText)
	}
	return text, nil
}

func buildResponsesInput(msgs chat.Conversation) responses.ResponseInputParam {
	items := make(responses.ResponseInputParam, 0, len(msgs))
	for _, msg := range msgs {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(msg.Content, responsesRole(msg.Role)))
	}
	return items
}

func responsesRole(role chat.Role) responses.EasyInputMessageRole {
	switch role {
	case chat.RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case chat.RoleSystem:
		return responses.EasyInputMessageRoleSystem
	default:
		return responses.EasyInputMessageRoleUser
	}
}

// extractResponsesText joins every output_text segment of every message item.
func extractResponsesText(resp *responses.Response) string {
	if resp == nil {
		return ""
	}

	var parts []string
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" && strings.TrimSpace(part.Text) != "" {
				parts = append(parts, part.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func buildChatMessages(instruction string, msgs chat.Conversation) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if trimmed := strings.TrimSpace(instruction); trimmed != "" {
		result = append(result, openai.SystemMessage(trimmed))
	}

	for _, msg := range msgs {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case chat.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case chat.RoleAssistant:
			result = append(result, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}
