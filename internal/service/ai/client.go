package ai

import (
	"context"
	"errors"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
)

// ErrEmptyText is returned when a call succeeds but yields no usable text.
var ErrEmptyText = errors.New("returned empty text")

// Request is one generation call. Instruction is sent ahead of Messages.
type Request struct {
	Instruction     string
	Messages        chat.Conversation
	Temperature     float64
	MaxOutputTokens int
}

// Client is a remote language-model backend exposing two call shapes.
// Respond is the structured "responses" shape; CompleteChat is the legacy
// chat-completion shape. Both return trimmed, non-empty text or an error.
type Client interface {
	Respond(ctx context.Context, req Request) (string, error)
	CompleteChat(ctx context.Context, req Request) (string, error)
	Model() string
}
