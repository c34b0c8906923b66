package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
)

type fakeChatModel struct {
	reply   string
	err     error
	inputs  []*schema.Message
	options *model.Options
	calls   int
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	f.inputs = input
	f.options = model.GetCommonOptions(nil, opts...)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestArkRespondRunsChainWithInstruction(t *testing.T) {
	fake := &fakeChatModel{reply: "I'm listening."}
	client, err := NewArk(context.Background(), fake, "doubao-test")
	if err != nil {
		t.Fatalf("NewArk err: %v", err)
	}

	text, err := client.Respond(context.Background(), Request{
		Instruction:     "be kind",
		Messages:        chat.Conversation{chat.UserMessage("hello")},
		Temperature:     0.7,
		MaxOutputTokens: 220,
	})
	if err != nil {
		t.Fatalf("Respond err: %v", err)
	}
	if text != "I'm listening." {
		t.Fatalf("unexpected text %q", text)
	}
	if len(fake.inputs) != 2 || fake.inputs[0].Role != schema.System || fake.inputs[0].Content != "be kind" {
		t.Fatalf("expected system instruction first, got %+v", fake.inputs)
	}
	if fake.options.MaxTokens == nil || *fake.options.MaxTokens != 220 {
		t.Fatalf("expected max tokens 220")
	}
}

func TestArkCompleteChatEmptyReply(t *testing.T) {
	fake := &fakeChatModel{reply: "   "}
	client, err := NewArk(context.Background(), fake, "doubao-test")
	if err != nil {
		t.Fatalf("NewArk err: %v", err)
	}

	_, err = client.CompleteChat(context.Background(), Request{Messages: chat.Conversation{chat.UserMessage("hi")}})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if fake.options.Temperature == nil {
		t.Fatalf("expected temperature option to be passed")
	}
}

func TestNewArkRequiresModel(t *testing.T) {
	if _, err := NewArk(context.Background(), nil, "x"); err == nil {
		t.Fatal("expected error for nil chat model")
	}
}
