package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
)

// arkClient drives an eino chat model. Respond runs the compiled
// template chain; CompleteChat calls the model directly.
type arkClient struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	modelName string
}

// NewArk wraps an eino chat model (typically Ark) as a Client.
func NewArk(ctx context.Context, chatModel model.ChatModel, modelName string) (Client, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	return &arkClient{
		chatModel: chatModel,
		chain:     runnable,
		modelName: modelName,
	}, nil
}

func (c *arkClient) Model() string {
	return c.modelName
}

func (c *arkClient) Respond(ctx context.Context, req Request) (string, error) {
	input := map[string]any{
		"system":  strings.TrimSpace(req.Instruction),
		"history": toSchemaMessages(req.Messages),
	}

	msg, err := c.chain.Invoke(ctx, input, compose.WithChatModelOption(modelOptions(req)...))
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}
	return messageText(msg, "reply chain")
}

func (c *arkClient) CompleteChat(ctx context.Context, req Request) (string, error) {
	messages := make([]*schema.Message, 0, len(req.Messages)+1)
	if instruction := strings.TrimSpace(req.Instruction); instruction != "" {
		messages = append(messages, schema.SystemMessage(instruction))
	}
	messages = append(messages, toSchemaMessages(req.Messages)...)

	msg, err := c.chatModel.Generate(ctx, messages, modelOptions(req)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate chat completion: %w", err)
	}
	return messageText(msg, "chat model")
}

func modelOptions(req Request) []model.Option {
	return []model.Option{
		model.WithTemperature(float32(req.Temperature)),
		model.WithMaxTokens(req.MaxOutputTokens),
	}
}

func toSchemaMessages(msgs chat.Conversation) []*schema.Message {
	history := make([]*schema.Message, 0, len(msgs))
	for _, msg := range msgs {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		case chat.RoleSystem:
			history = append(history, schema.SystemMessage(msg.Content))
		default:
			history = append(history, schema.UserMessage(msg.Content))
		}
	}
	return history
}

func messageText(msg *schema.Message, source string) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("%s %w", source, ErrEmptyText)
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", fmt.Errorf("%s %w", source, ErrEmptyText)
	}
	return text, nil
}
