package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/service/ai"
)

const (
	// FallbackNote is the diagnostic for a reply served by the secondary remote path.
	FallbackNote = "primary path failed; used fallback path (chat.completions)"
	// NoClientNote is the diagnostic when no client exists and no error was recorded.
	NoClientNote = "no client available"
)

// Config is the immutable generation configuration shared by all remote calls.
type Config struct {
	Instruction     string
	Temperature     float64
	MaxOutputTokens int
	// Timeout bounds each remote attempt; zero leaves the caller's context as is.
	Timeout time.Duration
}

// DefaultConfig returns the persona instruction with temperature 0.7 and a 220 token cap.
func DefaultConfig() Config {
	return Config{
		Instruction:     ai.SystemInstruction,
		Temperature:     0.7,
		MaxOutputTokens: 220,
		Timeout:         20 * time.Second,
	}
}

// attempt is one remote strategy of the fallback chain.
type attempt struct {
	name string
	// note is the diagnostic reported when this attempt is the one that succeeds.
	note string
	call func(ctx context.Context, client ai.Client, req ai.Request) (string, error)
}

func defaultAttempts() []attempt {
	return []attempt{
		{
			name: "responses.create",
			call: func(ctx context.Context, client ai.Client, req ai.Request) (string, error) {
				return client.Respond(ctx, req)
			},
		},
		{
			name: "chat.completions.create",
			note: FallbackNote,
			call: func(ctx context.Context, client ai.Client, req ai.Request) (string, error) {
				return client.CompleteChat(ctx, req)
			},
		},
	}
}

// Engine produces replies: remote attempts in order, then the local generator.
// Generate never fails.
type Engine struct {
	cfg       Config
	client    ai.Client
	clientErr error
	attempts  []attempt
	local     *LocalGenerator
	logger    *zap.Logger
}

// NewEngine builds an Engine. client may be nil, in which case clientErr
// (the construction failure, if any) becomes the diagnostic of every reply.
func NewEngine(cfg Config, client ai.Client, clientErr error, local *LocalGenerator, logger *zap.Logger) *Engine {
	if local == nil {
		local = NewLocalGenerator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		client:    client,
		clientErr: clientErr,
		attempts:  defaultAttempts(),
		local:     local,
		logger:    logger.Named("reply"),
	}
}

// RemoteAvailable reports whether a remote client was constructed.
func (e *Engine) RemoteAvailable() bool {
	return e.client != nil
}

// Model returns the remote model name, or "" when running local-only.
func (e *Engine) Model() string {
	if e.client == nil {
		return ""
	}
	return e.client.Model()
}

// Generate returns a reply for conv. It always returns non-empty text.
func (e *Engine) Generate(ctx context.Context, conv chat.Conversation) chat.ReplyResult {
	if e.client == nil {
		diagnostic := NoClientNote
		if e.clientErr != nil {
			diagnostic = e.clientErr.Error()
		}
		return e.localReply(conv, diagnostic)
	}

	req := ai.Request{
		Instruction:     e.cfg.Instruction,
		Messages:        conv,
		Temperature:     e.cfg.Temperature,
		MaxOutputTokens: e.cfg.MaxOutputTokens,
	}

	var failures []string
	for _, a := range e.attempts {
		text, err := e.run(ctx, a, req)
		if err == nil {
			return chat.ReplyResult{Text: text, Engine: chat.EngineRemote, Diagnostic: a.note}
		}
		e.logger.Warn("remote attempt failed", zap.String("attempt", a.name), zap.Error(err))
		failures = append(failures, fmt.Sprintf("%s: %s", a.name, describeError(err)))
	}

	return e.localReply(conv, strings.Join(failures, " | "))
}

// run executes one attempt, converting panics and blank output into errors.
func (e *Engine) run(ctx context.Context, a attempt, req ai.Request) (text string, err error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("panic: %v", r)
		}
	}()

	text, err = a.call(ctx, e.client, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ai.ErrEmptyText
	}
	return text, nil
}

func (e *Engine) localReply(conv chat.Conversation, diagnostic string) chat.ReplyResult {
	e.logger.Info("serving local reply", zap.String("diagnostic", diagnostic))
	return chat.ReplyResult{
		Text:       e.local.Generate(conv),
		Engine:     chat.EngineLocal,
		Diagnostic: diagnostic,
	}
}

func describeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout: " + err.Error()
	}
	return err.Error()
}
